package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
	"time"

	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

var ErrTemplateRender = errors.New("email: template render failed")

// VerifyVars son las variables del mail de verificación.
type VerifyVars struct {
	Email string
	Link  string
	TTL   string
}

// AccountExistsVars son las variables del mail "ya tenés cuenta".
type AccountExistsVars struct {
	Email    string
	LoginURL string
}

type pair struct {
	subject string
	html    *htemplate.Template
	text    *ttemplate.Template
}

// Mailer renderiza y envía los mails del flujo de cuentas.
type Mailer struct {
	sender Sender
	verify pair
	exists pair
}

func NewMailer(sender Sender) *Mailer {
	return &Mailer{
		sender: sender,
		verify: pair{
			subject: "Confirmá tu email",
			html:    htemplate.Must(htemplate.New("verify_html").Parse(verifyHTML)),
			text:    ttemplate.Must(ttemplate.New("verify_text").Parse(verifyText)),
		},
		exists: pair{
			subject: "Ya existe una cuenta con este email",
			html:    htemplate.Must(htemplate.New("exists_html").Parse(existsHTML)),
			text:    ttemplate.Must(ttemplate.New("exists_text").Parse(existsText)),
		},
	}
}

// SendVerification envía el link de confirmación de email.
func (m *Mailer) SendVerification(ctx context.Context, to, link string, ttl time.Duration) error {
	return m.send(ctx, to, m.verify, VerifyVars{Email: to, Link: link, TTL: ttl.String()})
}

// SendAccountExists avisa al dueño del email que alguien intentó registrarse.
func (m *Mailer) SendAccountExists(ctx context.Context, to, loginURL string) error {
	return m.send(ctx, to, m.exists, AccountExistsVars{Email: to, LoginURL: loginURL})
}

func (m *Mailer) send(ctx context.Context, to string, p pair, vars any) error {
	var hb, tb bytes.Buffer
	if err := p.html.Execute(&hb, vars); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	if err := p.text.Execute(&tb, vars); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	if err := m.sender.Send(to, p.subject, hb.String(), tb.String()); err != nil {
		logger.From(ctx).Error("mail not sent",
			logger.Component("email.mailer"), logger.EmailMasked(to), logger.Err(err))
		return err
	}
	return nil
}

const verifyHTML = `<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hola,</p>
<p>Confirmá que <strong>{{.Email}}</strong> es tu dirección de email:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p style="color:#777">El link vence en {{.TTL}}.</p>
</body></html>`

const verifyText = `Hola,

Confirmá que {{.Email}} es tu dirección de email visitando:
{{.Link}}

El link vence en {{.TTL}}.
`

const existsHTML = `<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hola,</p>
<p>Alguien intentó crear una cuenta con <strong>{{.Email}}</strong>, pero ya tenés una.</p>
<p>Si fuiste vos, ingresá acá: <a href="{{.LoginURL}}">{{.LoginURL}}</a></p>
<p style="color:#777">Si no fuiste vos, podés ignorar este mensaje.</p>
</body></html>`

const existsText = `Hola,

Alguien intentó crear una cuenta con {{.Email}}, pero ya tenés una.
Si fuiste vos, ingresá acá: {{.LoginURL}}

Si no fuiste vos, podés ignorar este mensaje.
`
