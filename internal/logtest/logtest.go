// Package logtest writes invocation log fixtures for tests.
//
// Fixtures follow the on-disk layout <root>/<YYYY.MM.DD>/<HH.MM.SS.micro>.log
// and the log line format of the toolkit. All helpers call t.Fatalf on
// failure, since test setup failures are not recoverable.
//
// This package has no sdkfeedback-internal dependencies.
package logtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Logs is the body of an ordinary run of "gcloud auth list". It contains a
// traceback that is not marked as a crash and must be ignored.
const Logs = `1970-01-01 00:00:00,000 DEBUG    root            Some debug message
1970-01-01 00:00:00,001 DEBUG    root            Some debug message, part 2
1970-01-01 00:00:00,002 DEBUG    root            Running [gcloud.auth.list] with arguments: []

*** Tracebacks outside a crash block are not reported.
Traceback (most recent call last):
  File "/path/to/googlecloudsdk/lib/test.py", line 3, in <module>
    main()
  File "/path/to/googlecloudsdk/lib/bread/toast.py", line 1, in method
    raise Exception('incidental exception')
Exception: incidental exception
`

// Traceback is the crash trace appended after the sentinel in crash logs.
const Traceback = `Traceback (most recent call last):
  File "/path/to/googlecloudsdk/lib/test.py", line 3, in <module>
    main()
  File "/path/to/googlecloudsdk/lib/test.py", line 2, in main
    example.method()
  File "/path/to/googlecloudsdk/lib/bread/toast.py", line 1, in method
    raise Exception('really really really long message')
Exception: really really long message`

// WindowsTraceback is Traceback as written on a Windows host.
const WindowsTraceback = `Traceback (most recent call last):
  File "C:\Program Files (x86)\googlecloudsdk\lib\test.py", line 3, in <module>
    main()
  File "C:\Program Files (x86)\googlecloudsdk\lib\test.py", line 2, in main
    example.method()
  File "C:\Program Files (x86)\googlecloudsdk\lib\bread\toast.py", line 1, in method
    raise Exception('really really really long message')
Exception: really really long message`

// Epilogue follows a crash trace in the log.
const Epilogue = `1970-01-01 00:00:00,003 INFO    ___FILE_ONLY___

If you would like to report this issue, please run the following command:


1970-01-01 00:00:00,004 INFO    ___FILE_ONLY___   gcloud feedback
`

// Sentinel precedes the crash trace.
const Sentinel = "BEGIN CRASH STACKTRACE"

// CrashLog returns a complete log of a crashed run.
func CrashLog() string {
	return CrashLogWith(Traceback)
}

// CrashLogWith returns a complete log of a run that crashed with trace.
func CrashLogWith(trace string) string {
	return Logs + Sentinel + "\n" + trace + "\n" + Epilogue
}

// Path returns where the log of a run at ts lives under root.
func Path(root string, ts time.Time) string {
	return filepath.Join(root, ts.Format("2006.01.02"), ts.Format("15.04.05.000000")+".log")
}

// Write creates the log file of a run at ts under root and returns its path.
func Write(t testing.TB, root string, ts time.Time, crash bool) string {
	t.Helper()
	contents := Logs
	if crash {
		contents = CrashLog()
	}
	return WriteContents(t, root, ts, contents)
}

// WriteContents creates a log file with arbitrary contents.
func WriteContents(t testing.TB, root string, ts time.Time, contents string) string {
	t.Helper()
	return WriteFile(t, Path(root, ts), contents)
}

// WriteFile creates the log file at path, which need not follow the layout.
func WriteFile(t testing.TB, path, contents string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create log directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	return path
}
