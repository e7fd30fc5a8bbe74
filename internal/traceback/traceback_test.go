package traceback

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unixTrace = `Traceback (most recent call last):
  File "/path/to/cloudsdk/test.py", line 3, in <module>
    main()
  File "/path/to/cloudsdk/./test.py", line 2, in main
    example.method()
  File "/path/to/cloudsdk/lib/example.py", line 70, in method
    a = b + foo.Bar()
  File "/path/to/cloudsdk/lib/googlecloudsdk/foo.py", line 700, in bar
    c.function()
  File "/path/to/cloudsdk/lib/third_party/bread/toast.py", line 1, in function
    raise Exception('really quite a fantastically, exceptionally, particularly long message')
Exception: really quite a fantastically, exceptionally, particularly long message`

const windowsTrace = `Traceback (most recent call last):
  File "C:\Program Files (x86)\cloudsdk\test.py", line 3, in <module>
    main()
  File "C:\Program Files (x86)\cloudsdk\.\test.py", line 2, in main
    example.method()
  File "C:\Program Files (x86)\cloudsdk\lib\example.py", line 70, in method
    a = b + foo.Bar()
  File "C:\Program Files (x86)\cloudsdk\lib\googlecloudsdk\foo.py", line 700, in bar
    c.function()
  File "C:\Program Files (x86)\cloudsdk\lib\third_party\bread\toast.py", line 1, in function
    raise Exception('really quite a fantastically, exceptionally, particularly long message')
Exception: really quite a fantastically, exceptionally, particularly long message`

const longException = "Exception: really quite a fantastically, exceptionally, particularly long message"

var (
	posix   = Options{Separator: '/'}
	windows = Options{Separator: '\\'}
)

func TestFormatUnixSeparator(t *testing.T) {
	stack, exception := Format(unixTrace, posix)

	want := "test.py:3\n" +
		" main()\n" +
		"test.py:2\n" +
		" example.method()\n" +
		"lib/example.py:70\n" +
		" a = b + foo.Bar()\n" +
		"foo.py:700\n" +
		" c.function()\n" +
		"bread/toast.py:1\n" +
		" raise Exception('really quite a fantastically, exceptionally, particularly long ...\n"
	assert.Equal(t, want, stack)
	assert.Equal(t, longException, exception)
}

func TestFormatWindowsSeparator(t *testing.T) {
	stack, exception := Format(windowsTrace, windows)

	want := "test.py:3\n" +
		" main()\n" +
		"test.py:2\n" +
		" example.method()\n" +
		"lib\\example.py:70\n" +
		" a = b + foo.Bar()\n" +
		"foo.py:700\n" +
		" c.function()\n" +
		"bread\\toast.py:1\n" +
		" raise Exception('really quite a fantastically, exceptionally, particularly long ...\n"
	assert.Equal(t, want, stack)
	assert.Equal(t, longException, exception)
}

func TestFormatKeepsApiLib(t *testing.T) {
	trace := `Traceback (most recent call last):
  File "/foo/api_lib/third_party/example.py", line 14, in Foo
    method()
  File "/path/to/cloudsdk/core/api_lib/third_party/example.py", line 70, in method
    a = b + foo.Bar()
  File "/path/to/cloudsdk/lib/third_party/foo.py", line 100, in Bar
    raise Exception('really quite a fantastically, exceptionally, particularly long message')
Exception: really quite a fantastically, exceptionally, particularly long message`

	stack, exception := Format(trace, posix)

	want := "/foo/api_lib/third_party/example.py:14\n" +
		" method()\n" +
		"/path/to/cloudsdk/core/api_lib/third_party/example.py:70\n" +
		" a = b + foo.Bar()\n" +
		"/path/to/cloudsdk/foo.py:100\n" +
		" raise Exception('really quite a fantastically, exceptionally, particularly long ...\n"
	assert.Equal(t, want, stack)
	assert.Equal(t, longException, exception)
}

func TestFormatKeepsApiLibWithCommonPrefix(t *testing.T) {
	trace := `Traceback (most recent call last):
  File "/path/to/cloudsdk/core/api_lib/third_party/example.py", line 70, in method
    a = b + foo.Bar()
  File "/path/to/cloudsdk/lib/third_party/foo.py", line 100, in Bar
    raise Exception(':(')
Exception: :(
`

	stack, exception := Format(trace, posix)

	want := "core/api_lib/third_party/example.py:70\n" +
		" a = b + foo.Bar()\n" +
		"foo.py:100\n" +
		" raise Exception(':(')\n"
	assert.Equal(t, want, stack)
	assert.Equal(t, "Exception: :(", exception)
}

func TestFormatSingleFrameKeepsBasename(t *testing.T) {
	trace := "Traceback (most recent call last):\n" +
		"  File \"/opt/sdk/lib/googlecloudsdk/run.py\", line 9, in Run\n" +
		"    boom()\n" +
		"ValueError: bad"

	stack, exception := Format(trace, posix)
	assert.Equal(t, "run.py:9\n boom()\n", stack)
	assert.Equal(t, "ValueError: bad", exception)
}

func TestFormatNoCommonPrefixKeepsBasenames(t *testing.T) {
	trace := "Traceback (most recent call last):\n" +
		"  File \"/a/one.py\", line 1, in a\n" +
		"    b()\n" +
		"  File \"/b/two.py\", line 2, in b\n" +
		"    c()\n" +
		"  File \"relative/three.py\", line 3, in c\n" +
		"    raise KeyError('x')\n" +
		"KeyError: 'x'"

	stack, _ := Format(trace, posix)
	for _, base := range []string{"one.py", "two.py", "three.py"} {
		assert.Contains(t, stack, base)
	}
	assert.Contains(t, stack, "/a/one.py:1\n")
	assert.Contains(t, stack, "relative/three.py:3\n")
}

func TestFormatSeparatorAgnostic(t *testing.T) {
	type triple struct{ base, line, source string }
	triples := func(stack string) []triple {
		var out []triple
		for _, entry := range Frames(stack) {
			lines := strings.SplitN(entry, "\n", 2)
			loc := strings.ReplaceAll(lines[0], `\`, "/")
			idx := strings.LastIndex(loc, ":")
			out = append(out, triple{path.Base(loc[:idx]), loc[idx+1:], lines[1]})
		}
		return out
	}

	for _, opts := range []Options{posix, windows} {
		unixStack, unixExc := Format(unixTrace, opts)
		winStack, winExc := Format(windowsTrace, opts)
		assert.Equal(t, triples(unixStack), triples(winStack))
		assert.Equal(t, unixExc, winExc)
	}
}

func TestFormatIdempotent(t *testing.T) {
	stack, _ := Format(unixTrace, posix)

	again, exception := Format(stack, posix)
	assert.Equal(t, strings.TrimSpace(stack), strings.TrimSpace(again))
	assert.Empty(t, exception)
}

func TestFormatWithoutFrames(t *testing.T) {
	stack, exception := Format("not a traceback", posix)
	assert.Equal(t, "not a traceback", stack)
	assert.Empty(t, exception)
}

func TestFormatCustomWidthAndPackage(t *testing.T) {
	trace := "Traceback (most recent call last):\n" +
		"  File \"/x/lib/mytool/a.py\", line 1, in a\n" +
		"    call_something_with_a_long_name()\n" +
		"  File \"/x/lib/mytool/sub/b.py\", line 2, in b\n" +
		"    raise RuntimeError()\n" +
		"RuntimeError"

	stack, exception := Format(trace, Options{Separator: '/', SnippetWidth: 10, ToolPackage: "mytool"})
	assert.Equal(t, "a.py:1\n call_somet...\nsub/b.py:2\n raise Runt...\n", stack)
	assert.Equal(t, "RuntimeError", exception)
}

func TestParseFrames(t *testing.T) {
	frames, exception, ok := Parse(unixTrace)
	require.True(t, ok)
	require.Len(t, frames, 5)
	assert.Equal(t, Frame{
		Path:     "/path/to/cloudsdk/lib/example.py",
		Line:     "70",
		Function: "method",
		Source:   "a = b + foo.Bar()",
	}, frames[2])
	assert.Equal(t, longException, exception)
}

func TestParseSkipsCaretLines(t *testing.T) {
	trace := "Traceback (most recent call last):\n" +
		"  File \"a.py\", line 1, in run\n" +
		"    x = y / z\n" +
		"        ~~^~~\n" +
		"ZeroDivisionError: division by zero"

	frames, exception, ok := Parse(trace)
	require.True(t, ok)
	require.Len(t, frames, 1)
	assert.Equal(t, "x = y / z", frames[0].Source)
	assert.Equal(t, "ZeroDivisionError: division by zero", exception)
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", Ellipsize("short", 80))
	assert.Equal(t, "abc...", Ellipsize("abcdef", 3))
	assert.Equal(t, "日本...", Ellipsize("日本語テキスト", 2))
}

func TestFrames(t *testing.T) {
	assert.Nil(t, Frames(""))
	assert.Equal(t, []string{"a.py:1\n x()", "b.py:2\n y()"}, Frames("a.py:1\n x()\nb.py:2\n y()\n"))
}
