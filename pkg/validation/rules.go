package validation

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
)

// Rule names.
const (
	RuleRequired  = "required"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleEmail     = "email"
	RuleNumber    = "number"
)

// Rule is a single check derived from a field descriptor.
type Rule struct {
	Name  string
	Limit int
	Expr  string
}

// Rules derives the rules for a field. html and captcha fields have none.
func Rules(field model.Field) []Rule {
	if !field.CollectsInput() {
		return nil
	}

	var rules []Rule
	if field.IsRequired {
		rules = append(rules, Rule{Name: RuleRequired})
	}
	if field.MaxLength > 0 && !field.IsChoiceBased() {
		rules = append(rules, Rule{Name: RuleMaxLength, Limit: field.MaxLength})
	}
	if expr := strings.TrimSpace(field.InputMaskValue); expr != "" {
		rules = append(rules, Rule{Name: RulePattern, Expr: expr})
	}
	switch field.Type {
	case model.FieldTypeEmail:
		rules = append(rules, Rule{Name: RuleEmail})
	case model.FieldTypeNumber:
		rules = append(rules, Rule{Name: RuleNumber})
	}
	return rules
}

var (
	validateOnce sync.Once
	validate     *validator.Validate

	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func emailValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// compilePattern compiles an input mask unanchored: the value passes when
// the mask matches anywhere in it.
func compilePattern(expr string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()

	if re, ok := patternCache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache[expr] = re
	return re, nil
}

// check applies rule to the non-empty values of a field. It returns the
// catalog key and arguments of the first failure.
func (r Rule) check(values []string) (string, []any, bool) {
	switch r.Name {
	case RuleRequired:
		if !anyFilled(values) {
			return render.MessageRequired, nil, false
		}
	case RuleMaxLength:
		for _, value := range values {
			if utf8.RuneCountInString(value) > r.Limit {
				return render.MessageMaxLength, []any{r.Limit}, false
			}
		}
	case RulePattern:
		re, err := compilePattern(r.Expr)
		if err != nil {
			// Descriptors are validated on load; an invalid mask here means
			// the form was built in code. Treat the value as malformed.
			return render.MessagePattern, nil, false
		}
		for _, value := range filled(values) {
			if !re.MatchString(value) {
				return render.MessagePattern, nil, false
			}
		}
	case RuleEmail:
		for _, value := range filled(values) {
			if err := emailValidator().Var(value, "email"); err != nil {
				return render.MessageEmail, nil, false
			}
		}
	case RuleNumber:
		for _, value := range filled(values) {
			if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
				return render.MessageNumber, nil, false
			}
		}
	}
	return "", nil, true
}

func anyFilled(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

func filled(values []string) []string {
	out := values[:0:0]
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}
