package util

import "crypto/rand"

const charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randStr(n int, cs string) string {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = cs[b%byte(len(cs))]
	}
	return string(buf)
}

// RandString returns a random alphanumeric string of length n.
func RandString(n int) string {
	return randStr(n, charset)
}

// RandStringLC returns a random lower-case alphanumeric string of length n.
func RandStringLC(n int) string {
	return randStr(n, charset[:36])
}
