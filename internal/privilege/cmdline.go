package privilege

import (
	"os"
	"strings"
)

func commandLine() string {
	return strings.Join(os.Args, " ")
}
