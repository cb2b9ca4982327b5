package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/credgate/internal/common"
	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the x/term calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errMismatch = errors.New("secrets do not match")

// GetPassword prints prompt to w and reads a password from the user's
// terminal without echo. A newline is printed after the read to keep the
// UI tidy.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetNewPassword reads a password twice and fails when the entries differ.
func GetNewPassword(w io.Writer) ([]byte, error) {
	first, err := GetPassword(w, "Enter secret: ")
	if err != nil {
		return nil, err
	}
	second, err := GetPassword(w, "Repeat secret: ")
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, errMismatch
	}
	return first, nil
}

// ReadLine reads one line from reader with the line ending removed. A
// final line without a newline is accepted.
func ReadLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
