package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrAborted 表示用户拒绝了确认，操作未产生任何副作用
var ErrAborted = errors.New("aborted by user")

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// LineConfirmer 读取一行输入，只有精确的 "y"（区分大小写）才视为同意
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *LineConfirmer) Confirm(prompt string) (bool, error) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, "%s [y/N] ", prompt)
	}
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.TrimRight(line, "\r\n") == "y", nil
}
