package validation_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/validation"
)

func contactForm() model.Form {
	return model.Form{
		ID: 7,
		Fields: []model.Field{
			{ID: 1, Type: model.FieldTypeText, Label: "Name", IsRequired: true, MaxLength: 5},
			{ID: 2, Type: model.FieldTypeEmail, Label: "Email"},
			{ID: 3, Type: model.FieldTypeCheckbox, Label: "Topics", IsRequired: true},
			{ID: 4, Type: model.FieldTypeNumber, Label: "Age"},
			{ID: 5, Type: model.FieldTypePhone, Label: "Phone", InputMaskValue: `\d{3}-\d{4}`},
			{ID: 6, Type: model.FieldTypeHidden, DefaultValue: "campaign"},
			{ID: 7, Type: model.FieldTypeHTML, Content: "<p>hi</p>", IsRequired: true},
		},
	}
}

func TestRules(t *testing.T) {
	form := contactForm()

	names := func(field model.Field) []string {
		var out []string
		for _, rule := range validation.Rules(field) {
			out = append(out, rule.Name)
		}
		return out
	}

	tests := map[int][]string{
		1: {validation.RuleRequired, validation.RuleMaxLength},
		2: {validation.RuleEmail},
		4: {validation.RuleNumber},
		5: {validation.RulePattern},
		7: nil,
	}
	for id, want := range tests {
		field, _ := form.Field(id)
		if diff := cmp.Diff(want, names(field)); diff != "" {
			t.Fatalf("field %d rules mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestValidateForm(t *testing.T) {
	catalog := render.NewCatalog(nil, "", nil)

	t.Run("required and max length", func(t *testing.T) {
		errs := validation.ValidateForm(contactForm(), model.Values{
			"input_1": {"Margaret"},
		}, catalog)

		want := validation.FieldErrors{
			"input_1": {"Maximum 5 characters allowed."},
			"input_3": {"This field is required."},
		}
		if diff := cmp.Diff(want, errs); diff != "" {
			t.Fatalf("errors mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(errs["input_1"][0], "5") {
			t.Fatalf("max length message should contain the limit")
		}
	})

	t.Run("empty required", func(t *testing.T) {
		errs := validation.ValidateForm(contactForm(), model.Values{
			"input_1":   {"   "},
			"input_3_2": {"News"},
		}, catalog)
		if diff := cmp.Diff(validation.FieldErrors{"input_1": {"This field is required."}}, errs); diff != "" {
			t.Fatalf("errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("format rules", func(t *testing.T) {
		errs := validation.ValidateForm(contactForm(), model.Values{
			"input_1":   {"Ada"},
			"input_2":   {"not-an-email"},
			"input_3_1": {"News"},
			"input_4":   {"forty"},
			"input_5":   {"5551234"},
		}, catalog)
		want := validation.FieldErrors{
			"input_2": {render.DefaultMessage(render.MessageEmail)},
			"input_4": {render.DefaultMessage(render.MessageNumber)},
			"input_5": {render.DefaultMessage(render.MessagePattern)},
		}
		if diff := cmp.Diff(want, errs); diff != "" {
			t.Fatalf("errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("valid", func(t *testing.T) {
		errs := validation.ValidateForm(contactForm(), model.Values{
			"input_1":   {"Ada"},
			"input_2":   {"ada@example.com"},
			"input_3_1": {"News"},
			"input_4":   {"36"},
			"input_5":   {"555-1234"},
		}, catalog)
		if !errs.Empty() {
			t.Fatalf("expected no errors, got %v", errs)
		}
	})
}

func TestMaxLengthCountsRunes(t *testing.T) {
	field := model.Field{ID: 1, Type: model.FieldTypeTextarea, MaxLength: 3}
	catalog := render.NewCatalog(nil, "", nil)
	if msgs := validation.ValidateField(field, model.Values{"input_1": {"héé"}}, catalog); len(msgs) != 0 {
		t.Fatalf("expected three runes to pass, got %v", msgs)
	}
	if msgs := validation.ValidateField(field, model.Values{"input_1": {"héllo"}}, catalog); len(msgs) != 1 {
		t.Fatalf("expected max length failure, got %v", msgs)
	}
}

func TestInputMaskMatchesAnywhere(t *testing.T) {
	field := model.Field{ID: 7, Type: model.FieldTypePhone, InputMaskValue: `\d{3}-\d{4}`}
	catalog := render.NewCatalog(nil, "", nil)

	for _, value := range []string{"555-1234", "tel 555-1234", "555-1234 ext 2"} {
		if msgs := validation.ValidateField(field, model.Values{"input_7": {value}}, catalog); len(msgs) != 0 {
			t.Fatalf("%q: expected mask to pass, got %v", value, msgs)
		}
	}
	want := []string{render.DefaultMessage(render.MessagePattern)}
	got := validation.ValidateField(field, model.Values{"input_7": {"call 5551234"}}, catalog)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mask failure mismatch (-want +got):\n%s", diff)
	}
}

func TestHasEntry(t *testing.T) {
	form := contactForm()

	if validation.HasEntry(form, model.Values{"input_6": {"campaign"}}) {
		t.Fatalf("hidden values must not count as an entry")
	}
	if validation.HasEntry(form, model.Values{"input_1": {"  "}}) {
		t.Fatalf("blank values must not count as an entry")
	}
	if !validation.HasEntry(form, model.Values{"input_3_4": {"Other"}}) {
		t.Fatalf("checkbox sub-input should count as an entry")
	}
	if !validation.HasEntry(form, model.Values{"input_2": {"a@b.co"}}) {
		t.Fatalf("expected entry")
	}
}
