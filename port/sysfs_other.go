//go:build !linux

package port

func manufacturer(string) string { return "" }
