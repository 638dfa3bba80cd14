package accounts

import "crypto/rand"

// 64 characters so each random byte maps without modulo bias.
const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._"

const generatedPasswordLen = 16

// randomPassword backs SSO-created accounts, which never see the password;
// the user obtains a real one via the reset mail.
func randomPassword() string {
	b := make([]byte, generatedPasswordLen)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = passwordCharset[int(b[i])%len(passwordCharset)]
	}
	return string(b)
}
