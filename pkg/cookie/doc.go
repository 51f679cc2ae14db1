// Package cookie writes HMAC signed cookies and one-shot flash messages.
package cookie
