package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	domain "realtime-users/internal/domain/user"
	"realtime-users/internal/usecase/user"
	apperrors "realtime-users/pkg/errors"
)

// MsgFillAllFields is shown when a submitted form has an empty field.
const MsgFillAllFields = "Please fill all fields"

// TerminalView prints a screen to a line-oriented terminal. Rows are
// numbered from 1.
type TerminalView struct {
	mu     sync.Mutex
	out    io.Writer
	format string
	mode   user.Mode
	name   string
	email  string
}

var _ user.View = (*TerminalView)(nil)

// NewTerminalView creates a view writing to out in the given format.
func NewTerminalView(out io.Writer, format string) *TerminalView {
	return &TerminalView{out: out, format: format}
}

// Render prints the whole list.
func (v *TerminalView) Render(snapshot domain.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.format == "json" {
		v.emit("snapshot", snapshot)
		return
	}

	fmt.Fprintf(v.out, "\n--- %d user(s) ---\n", len(snapshot))
	for i, u := range snapshot {
		fmt.Fprintf(v.out, "%3d. %s <%s>\n", i+1, u.Name, u.Email)
	}
	v.promptLocked()
}

// Fill shows the values loaded into the form.
func (v *TerminalView) Fill(name, email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.name, v.email = name, email

	if v.format == "json" {
		v.emit("form", map[string]string{"name": name, "email": email})
		return
	}
	fmt.Fprintf(v.out, "editing: %s , %s\n", name, email)
}

// Clear empties the form.
func (v *TerminalView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.name, v.email = "", ""
}

// SetMode switches the prompt between Save and Update.
func (v *TerminalView) SetMode(mode user.Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode

	if v.format == "json" {
		v.emit("mode", mode.String())
		return
	}
	v.promptLocked()
}

// Notify prints a short message.
func (v *TerminalView) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.format == "json" {
		v.emit("notice", message)
		return
	}
	fmt.Fprintf(v.out, "* %s\n", message)
}

// Fail prints an error. Empty form fields get the form's own message.
func (v *TerminalView) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	message := failureMessage(err)
	if v.format == "json" {
		v.emit("error", message)
		return
	}
	fmt.Fprintf(v.out, "! %s\n", message)
}

// Form returns the current form values and mode.
func (v *TerminalView) Form() (string, string, user.Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name, v.email, v.mode
}

// Prompt prints the command prompt.
func (v *TerminalView) Prompt() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.format != "json" {
		v.promptLocked()
	}
}

// Println prints a free-form line.
func (v *TerminalView) Println(line string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, line)
}

func (v *TerminalView) promptLocked() {
	fmt.Fprintf(v.out, "[%s] > ", v.mode.Label())
}

func (v *TerminalView) emit(kind string, data any) {
	_ = json.NewEncoder(v.out).Encode(map[string]any{"type": kind, "data": data})
}

func failureMessage(err error) string {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field == "Name" || validationErr.Field == "Email" {
			return MsgFillAllFields
		}
		return validationErr.Message
	}
	return err.Error()
}
