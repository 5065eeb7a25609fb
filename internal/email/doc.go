// Package email envía los mails transaccionales del servicio.
//
//	Mailer (templates html + text)
//	   └── Sender
//	         ├── SMTPSender (go-mail)
//	         └── LogSender  (dev: loguea en vez de enviar)
//
// Mails: verificación de email y "ya existe una cuenta" (prevención de
// enumeración: el usuario recibe un mail en vez de un error en pantalla).
package email
