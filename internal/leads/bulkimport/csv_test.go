package bulkimport

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want [][]string
	}{
		{
			"plain rows",
			"a,b,c\n1,2,3",
			[][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			"crlf line endings",
			"a,b\r\n1,2\r\n",
			[][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			"blank lines skipped",
			"a,b\n\n   \n1,2\n\n",
			[][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			"quoted comma stays in field",
			`name,address` + "\n" + `Jo,"12 Main St, Brisbane"`,
			[][]string{{"name", "address"}, {"Jo", "12 Main St, Brisbane"}},
		},
		{
			"doubled quote is literal",
			`"say ""hi""",x`,
			[][]string{{`say "hi"`, "x"}},
		},
		{
			"empty fields preserved",
			"a,,c",
			[][]string{{"a", "", "c"}},
		},
		{
			"whitespace-only input",
			"  \n\r\n ",
			nil,
		},
		{
			"empty input",
			"",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}
