package svcmgr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompt reads a username and password from the controlling
// terminal. The password is read without echo when stdin is a terminal.
func TerminalPrompt(serviceName string) (string, string, error) {
	return promptAccount(os.Stdin, os.Stdout, serviceName)
}

func promptAccount(in *os.File, out io.Writer, serviceName string) (string, string, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "Account for service %s\n", serviceName)
	fmt.Fprint(out, "Username: ")
	username, err := readLine(reader)
	if err != nil {
		return "", "", fmt.Errorf("read username: %w", err)
	}
	if username == "" {
		return "", "", fmt.Errorf("username must not be empty")
	}

	fmt.Fprint(out, "Password: ")
	var password string
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	} else {
		password, err = readLine(reader)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
	}
	return username, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
