// bio-xlink identifies protein-RNA crosslink sites from CLIP alignments and
// tests them for significance. Run "bio-xlink help" for the subcommands.
package main

import (
	"github.com/grailbio/base/grail"
	"github.com/grailbio/xlink/cmd/bio-xlink/cmd"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmd.Run()
}
