package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirm prints prompt and waits for a single key. Only 'Y' (either case)
// confirms. On a terminal the key is read in raw mode without Enter; other
// inputs are read up to the end of the line.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintln(out, prompt)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		key, err := readKey(f)
		fmt.Fprintln(out)
		if err != nil {
			return false, err
		}
		return key == 'y' || key == 'Y', nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.ToUpper(strings.TrimSpace(line)) == "Y", nil
}

func readKey(f *os.File) (byte, error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return 0, fmt.Errorf("failed to switch terminal to raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		return 0, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return buf[0], nil
}
