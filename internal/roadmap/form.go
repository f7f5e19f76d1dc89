package roadmap

import "context"

// Notification is the transient toast shown above the form.
type Notification struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
	Visible bool   `json:"visible"`
}

// SaveFunc persists the form input; the HTTP handler binds it to Controller.Save.
type SaveFunc func(ctx context.Context, input SaveInput) SaveResult

// Form is the settings form state: field values, validation progress and the
// current notification.
type Form struct {
	RoadmapID     string
	IframeURL     string
	ShowIframeURL bool
	IsValidating  bool
	Notification  Notification

	variant  Variant
	messages Messages
}

// NewForm initialises the form from a Load result.
func NewForm(loaded LoadResult, variant Variant, messages Messages) *Form {
	return &Form{
		RoadmapID:     loaded.RoadmapID,
		IframeURL:     loaded.IframeURL,
		ShowIframeURL: variant.IframeURLField,
		variant:       variant,
		messages:      messages,
	}
}

// Messages returns the catalog the form renders with.
func (f *Form) Messages() Messages {
	return f.messages
}

// SetRoadmapID updates the id field.
func (f *Form) SetRoadmapID(v string) {
	f.RoadmapID = v
}

// SetIframeURL updates the iframe field; ignored when the field is hidden.
func (f *Form) SetIframeURL(v string) {
	if !f.ShowIframeURL {
		return
	}
	f.IframeURL = v
}

// Input returns the values that would be submitted.
func (f *Form) Input() SaveInput {
	in := SaveInput{RoadmapID: f.RoadmapID}
	if f.ShowIframeURL {
		in.IframeURL = f.IframeURL
	}
	return in
}

// Validate runs the pre-submit check. It reports whether submission may proceed
// and raises an error notification when it may not.
func (f *Form) Validate(ctx context.Context, checker RoadmapChecker) bool {
	if f.RoadmapID == "" {
		f.notify(f.messages.EnterRoadmapID, true)
		return false
	}

	f.IsValidating = true
	defer func() { f.IsValidating = false }()

	if errCheck := checker.Check(ctx, f.RoadmapID, f.IframeURL); errCheck != nil {
		f.notify(f.messages.CheckFailure(errCheck), true)
		return false
	}
	return true
}

// Submit validates (when the variant asks for it) and then saves. It reports
// whether save was called.
func (f *Form) Submit(ctx context.Context, checker RoadmapChecker, save SaveFunc) bool {
	if f.variant.ValidateBeforeSave && !f.Validate(ctx, checker) {
		return false
	}
	f.ApplySaveResult(save(ctx, f.Input()))
	return true
}

// ApplySaveResult shows the outcome of a save.
func (f *Form) ApplySaveResult(result SaveResult) {
	if result.Status == "" {
		return
	}
	f.notify(result.Message, result.Failed())
}

// Dismiss hides the current notification.
func (f *Form) Dismiss() {
	f.Notification.Visible = false
}

// FieldError is the message shown under the id field while an error notification is visible.
func (f *Form) FieldError() string {
	if f.Notification.IsError && f.Notification.Visible {
		return f.Notification.Message
	}
	return ""
}

func (f *Form) notify(message string, isError bool) {
	f.Notification = Notification{Message: message, IsError: isError, Visible: true}
}
