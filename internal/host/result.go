package host

// Result is one entry in a search response.
type Result struct {
	Label    string `json:"label"`
	Icon     string `json:"icon,omitempty"` // file path; empty = host default
	TintIcon bool   `json:"tintIcon"`
	Action   Action `json:"action"`
}

// ActionType names what the host does when a result is chosen.
type ActionType string

const (
	ActionOpenURL   ActionType = "open-url"
	ActionCopy      ActionType = "copy"
	ActionForm      ActionType = "form"
	ActionExtension ActionType = "extension"
	ActionNone      ActionType = "none"
)

// Action is the single action attached to a Result.
type Action struct {
	Type      ActionType     `json:"type"`
	URL       string         `json:"url,omitempty"`
	Text      string         `json:"text,omitempty"`
	Extension *ExtensionCall `json:"extension,omitempty"`
	Form      *Form          `json:"form,omitempty"`
}

// ExtensionCall asks the host to invoke this extension again in run-action mode.
type ExtensionCall struct {
	Action string   `json:"action"`
	Args   []string `json:"args"`
}

// Form is a dialog the host renders; submitting it runs Action with Args and
// the field values.
type Form struct {
	Title         string   `json:"title"`
	Action        string   `json:"action"`
	Args          []string `json:"args"`
	PrimaryButton string   `json:"primaryButton"`
	Fields        []Field  `json:"fields"`
}

// FieldKind is the widget used for a form field.
type FieldKind string

const (
	FieldInput  FieldKind = "input"
	FieldToggle FieldKind = "toggle"
)

// Field is one form widget. Toggle values are "true" or "false".
type Field struct {
	ID          string    `json:"id"`
	Kind        FieldKind `json:"kind"`
	Label       string    `json:"label"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// OpenURL opens url in the default browser.
func OpenURL(url string) Action {
	return Action{Type: ActionOpenURL, URL: url}
}

// Copy puts text on the clipboard.
func Copy(text string) Action {
	return Action{Type: ActionCopy, Text: text}
}

// Extension calls back into this extension with action and args.
func Extension(action string, args ...string) Action {
	if args == nil {
		args = []string{}
	}
	return Action{Type: ActionExtension, Extension: &ExtensionCall{Action: action, Args: args}}
}

// ShowForm asks the host to show form and submit it as form.Action.
func ShowForm(form Form) Action {
	if form.Args == nil {
		form.Args = []string{}
	}
	return Action{Type: ActionForm, Form: &form}
}

// DoNothing is an inert result.
func DoNothing() Action {
	return Action{Type: ActionNone}
}

// Input builds a text input field.
func Input(id, label, value, description string) Field {
	return Field{ID: id, Kind: FieldInput, Label: label, Value: value, Description: description, Placeholder: label}
}

// Toggle builds an on/off field.
func Toggle(id, label string, on bool, description string) Field {
	value := "false"
	if on {
		value = "true"
	}
	return Field{ID: id, Kind: FieldToggle, Label: label, Value: value, Description: description}
}
