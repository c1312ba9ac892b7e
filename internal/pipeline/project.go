package pipeline

import (
	"github.com/dusk-indust/architecturizr/internal/catalogue"
	"github.com/dusk-indust/architecturizr/internal/config"
)

// FromProject turns a project config rooted at root into a run config.
// Defaults are applied; Graph is left for the caller.
func FromProject(root string, pc config.ProjectConfig) Config {
	pc = pc.WithDefaults()
	return Config{
		ProjectRoot: root,
		Catalogue:   pc.Catalogue,
		FlowsDir:    pc.FlowsDir,
		Extensions:  pc.Extensions,
		OutputDir:   pc.OutputDir,
		Formats:     pc.Formats,
		OwnerTag:    pc.OwnerTag,
		Concurrency: pc.Concurrency,
		S3: catalogue.S3Config{
			Endpoint:  pc.S3.Endpoint,
			Region:    pc.S3.Region,
			AccessKey: pc.S3.AccessKey,
			SecretKey: pc.S3.SecretKey,
			UseSSL:    pc.S3.SSL(),
		},
	}
}
