package handler

import (
	"bytes"
	"html/template"

	"github.com/labstack/echo/v4"
)

var resetFormPage = template.Must(template.New("reset-form").Parse(`<html>
    <body>
        <h2>Reset Your Password</h2>
        <form method="post" action="/auth/reset-password">
            <input type="hidden" name="token" value="{{.}}">
            <label>New Password:</label><br>
            <input type="password" name="new_password" required><br><br>
            <button type="submit">Reset Password</button>
        </form>
    </body>
</html>
`))

var messagePage = template.Must(template.New("message").Parse(`<h3>{{.}}</h3>`))

func renderPage(c echo.Context, status int, page *template.Template, data any) error {
	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}
