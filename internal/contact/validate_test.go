package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidator_AcceptsAndNormalizes(t *testing.T) {
	v := NewValidator()
	clean, errs := v.Check(Payload{Name: "  Ada  ", Email: " ADA@Example.com ", Message: "\nHello\n"})
	require.Empty(t, errs)
	assert.Equal(t, "Ada", clean.Name)
	assert.Equal(t, "ada@example.com", clean.Email)
	assert.Equal(t, "Hello", clean.Message)
}

func TestValidator_ReportsEveryField(t *testing.T) {
	v := NewValidator()
	_, errs := v.Check(Payload{Name: "", Email: "not-an-email", Message: ""})
	require.Len(t, errs, 3)
	assert.Equal(t, []string{"name", "email", "message"}, fieldsOf(errs))
	assert.Equal(t, "Name must be between 1 and 100 characters", errs[0].Message)
	assert.Equal(t, "Please provide a valid email address", errs[1].Message)
	assert.Equal(t, "Message must be between 1 and 1000 characters", errs[2].Message)
}

func TestValidator_WhitespaceOnlyIsEmpty(t *testing.T) {
	v := NewValidator()
	_, errs := v.Check(Payload{Name: "   ", Email: "a@b.co", Message: " \t "})
	assert.Equal(t, []string{"name", "message"}, fieldsOf(errs))
}

func TestValidator_NameRules(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"punctuation allowed", "O'Neil-Smith, Jr. @home_1", ""},
		{"max length", strings.Repeat("a", 100), ""},
		{"too long", strings.Repeat("a", 101), "Name must be between 1 and 100 characters"},
		{"angle brackets", "<script>", "Name contains invalid characters"},
		{"non ascii letters", "Zoë", "Name contains invalid characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := v.Check(Payload{Name: tc.input, Email: "a@b.co", Message: "hi"})
			if tc.wantErr == "" {
				require.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, "name", errs[0].Field)
			assert.Equal(t, tc.wantErr, errs[0].Message)
		})
	}
}

func TestValidator_MessageLengthCountsCharacters(t *testing.T) {
	v := NewValidator()
	_, errs := v.Check(Payload{Name: "Ada", Email: "a@b.co", Message: strings.Repeat("é", 1000)})
	require.Empty(t, errs)
	_, errs = v.Check(Payload{Name: "Ada", Email: "a@b.co", Message: strings.Repeat("x", 1001)})
	require.Len(t, errs, 1)
	assert.Equal(t, "message", errs[0].Field)
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"ADA@Example.com":          "ada@example.com",
		"John.Doe+news@Gmail.com":  "johndoe@gmail.com",
		"j.doe@googlemail.com":     "jdoe@gmail.com",
		"someone+tag@outlook.com":  "someone@outlook.com",
		"person-list@yahoo.com":    "person@yahoo.com",
		"first.last+x@example.org": "first.last+x@example.org",
		"+only@gmail.com":          "+only@gmail.com",
		"no-at-sign":               "no-at-sign",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeEmail(in), in)
	}
}

func TestValidator_EmailNeedsTopLevelDomain(t *testing.T) {
	v := NewValidator()
	for _, addr := range []string{"ada@example.c", "ada@localhost", "ada@example.123"} {
		_, errs := v.Check(Payload{Name: "Ada", Email: addr, Message: "Hello"})
		require.Len(t, errs, 1, addr)
		assert.Equal(t, "email", errs[0].Field)
		assert.Equal(t, "Please provide a valid email address", errs[0].Message)
	}
	for _, addr := range []string{"ada@example.io", "ada@mail.example.co.uk", "ada@example.museum"} {
		_, errs := v.Check(Payload{Name: "Ada", Email: addr, Message: "Hello"})
		assert.Empty(t, errs, addr)
	}
}
