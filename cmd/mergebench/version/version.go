package version

import (
	"fmt"

	"github.com/vexsearch/mergebench/internal/version"
)

func Run() {
	fmt.Println(version.String())
	sv := version.MetaVersions()
	fmt.Printf("  meta format: %d (reads %d-%d)\n", sv.CurrentVersion, sv.MinVersion, sv.CurrentVersion)
}
