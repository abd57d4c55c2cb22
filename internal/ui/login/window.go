// Package login provides the sign-in and registration window.
package login

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Callbacks defines the login window handlers. Both return an error that
// is shown inline when non-nil.
type Callbacks struct {
	OnLogin    func(email, password string) error
	OnRegister func(fullName, email, password string) error
}

// Window handles the login UI.
type Window struct {
	window    fyne.Window
	callbacks Callbacks
	fullName  *widget.Entry
	email     *widget.Entry
	password  *widget.Entry
	errorText *widget.Label
}

// New creates the login window.
func New(app fyne.App, callbacks Callbacks) *Window {
	window := app.NewWindow("TimeTracker Sign In")

	fullName := widget.NewEntry()
	fullName.SetPlaceHolder("Full name (registration only)")

	email := widget.NewEntry()
	email.SetPlaceHolder("Email")

	password := widget.NewPasswordEntry()
	password.SetPlaceHolder("Password")

	errorText := widget.NewLabel("")
	errorText.Importance = widget.DangerImportance
	errorText.Hide()

	login := &Window{
		window:    window,
		callbacks: callbacks,
		fullName:  fullName,
		email:     email,
		password:  password,
		errorText: errorText,
	}

	loginButton := widget.NewButton("Sign In", login.handleLogin)
	loginButton.Importance = widget.HighImportance
	registerButton := widget.NewButton("Register", login.handleRegister)

	content := container.NewVBox(
		widget.NewLabelWithStyle("TimeTracker", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		fullName,
		email,
		password,
		errorText,
		loginButton,
		registerButton,
	)

	window.SetContent(container.NewPadded(content))
	window.Resize(fyne.NewSize(360, 320))
	return login
}

// Show displays the login window with cleared fields.
func (login *Window) Show() {
	login.password.SetText("")
	login.errorText.Hide()
	login.window.Show()
	login.window.RequestFocus()
}

// Hide hides the login window.
func (login *Window) Hide() {
	login.window.Hide()
}

func (login *Window) handleLogin() {
	email := strings.TrimSpace(login.email.Text)
	if email == "" || login.password.Text == "" {
		login.showError("Email and password are required")
		return
	}
	if login.callbacks.OnLogin == nil {
		return
	}
	if err := login.callbacks.OnLogin(email, login.password.Text); err != nil {
		login.showError(err.Error())
		return
	}
	login.window.Hide()
}

func (login *Window) handleRegister() {
	fullName := strings.TrimSpace(login.fullName.Text)
	email := strings.TrimSpace(login.email.Text)
	if fullName == "" || email == "" || login.password.Text == "" {
		login.showError("Name, email and password are required")
		return
	}
	if login.callbacks.OnRegister == nil {
		return
	}
	if err := login.callbacks.OnRegister(fullName, email, login.password.Text); err != nil {
		login.showError(err.Error())
		return
	}
	login.showInfo("Account created, you can sign in now")
}

func (login *Window) showError(message string) {
	login.errorText.Importance = widget.DangerImportance
	login.errorText.SetText(message)
	login.errorText.Show()
}

func (login *Window) showInfo(message string) {
	login.errorText.Importance = widget.SuccessImportance
	login.errorText.SetText(message)
	login.errorText.Show()
}
