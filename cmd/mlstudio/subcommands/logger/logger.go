package logger

import (
	"fmt"
	"io"
	"log"
)

func Null() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

func Default() *log.Logger {
	return log.Default()
}

// For returns a logger for the command, like "[mlstudio dataset upload] ...".
func For(w io.Writer, fullname string) *log.Logger {
	return log.New(w, fmt.Sprintf("[%s] ", fullname), log.LstdFlags)
}
