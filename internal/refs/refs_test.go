package refs

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"fixes keyword", "This fixes #42 for good", []string{"42"}},
		{"bare hash", "see #3 and #4", []string{"3", "4"}},
		{"keyword glued to number", "Fixed12 and closes99", []string{"12", "99"}},
		{"case insensitive", "RESOLVES#8", []string{"8"}},
		{"issue url", "https://github.com/o/r/issues/15", []string{"15"}},
		{"http url", "http://github.com/o/r/issues/16", []string{"16"}},
		{"pull url is ignored", "https://github.com/o/r/pull/17", nil},
		{"no references", "refactor the parser", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(ptr(tt.text))
			assert.NotNil(t, got)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_KeywordAndURLAreNotDeduplicated(t *testing.T) {
	got := Extract(ptr("closes #7, see https://github.com/o/r/issues/7"))
	assert.Equal(t, []string{"7", "7"}, got)
}

func TestExtract_FieldThenRuleOrder(t *testing.T) {
	title := "Fix #1 https://github.com/o/r/issues/2"
	body := "https://github.com/o/r/issues/4 and #3"

	got := Extract(&title, &body)
	assert.Equal(t, []string{"1", "2", "3", "4"}, got)
}

func TestExtract_NilFields(t *testing.T) {
	got := Extract(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	body := "fixes #9"
	assert.Equal(t, []string{"9"}, Extract(nil, &body))
}

func TestExtractor_CustomRules(t *testing.T) {
	jira := Rule{Name: "jira", Pattern: regexp.MustCompile(`\bPROJ-(\d+)\b`)}
	e := NewExtractor(jira)

	assert.Equal(t, []string{"12"}, e.ExtractText("PROJ-12 fixes #3"))
}
