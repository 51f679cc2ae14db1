// Package mailer renders Markdown e-mail templates and hands them to a Sender.
//
// Templates are Markdown files with an optional YAML frontmatter block.
// The body and the Subject key are executed with text/template, the body is
// converted to HTML with goldmark and wrapped in an html/template layout.
//
//	---
//	Subject: Your order {{.Code}}
//	---
//	Hello {{.Name}},
//
//	your order **{{.Code}}** has been received.
//
// Templates may be localized by placing them in a directory named after the
// language tag (fr-be/order_placed.md). The renderer tries the full tag, its
// base language and then the root.
package mailer
