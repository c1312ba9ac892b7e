// Package skilldata embeds the starter project written by
// `architecturizr init`. The embedded filesystem is rooted at "starter/"
// and holds a project config, an example catalogue and an example flow.
package skilldata

import "embed"

// StarterRoot is the directory of StarterFS to copy from.
const StarterRoot = "starter"

// StarterFS contains the starter project files. Walk from StarterRoot to
// iterate over all files.
//
//go:embed all:starter
var StarterFS embed.FS
