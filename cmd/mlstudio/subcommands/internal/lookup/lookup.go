// Package lookup finds resources by the names users type.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	cerr "github.com/opst/mlstudio/cmd/mlstudio/errors"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	"github.com/opst/mlstudio/pkg/utils"
	"github.com/youta-t/flarc"
)

// ProjectName returns the project given by flag, or the default project in mlstudioenv.
//
// If both are empty, it returns an error wrapping flarc.ErrUsage.
func ProjectName(e env.MLStudioEnv, flag string) (string, error) {
	name := e.ProjectOr(flag)
	if name == "" {
		return "", fmt.Errorf(
			"%w: --project is required (or set 'project' in mlstudioenv)", flarc.ErrUsage,
		)
	}
	return name, nil
}

// Project finds the project by its name.
func Project(ctx context.Context, client rest.MLStudioClient, name string) (projects.Detail, error) {
	ps, err := client.ListProjects(ctx)
	if err != nil {
		return projects.Detail{}, err
	}
	p, ok := utils.First(ps, func(p projects.Detail) bool { return p.Name == name })
	if !ok {
		return projects.Detail{}, cerr.Newf("project '%s' is not found", name)
	}
	return p, nil
}

// Dataset finds the dataset in the project by its name or id.
func Dataset(ctx context.Context, client rest.MLStudioClient, project string, nameOrId string) (datasets.Summary, error) {
	ds, err := client.ListDatasets(ctx, project)
	if err != nil {
		return datasets.Summary{}, err
	}
	nameOrId = strings.TrimSpace(nameOrId)
	d, ok := utils.First(ds, func(d datasets.Summary) bool {
		return d.Name == nameOrId || d.Id == nameOrId
	})
	if !ok {
		return datasets.Summary{}, cerr.Newf("dataset '%s' is not found in project '%s'", nameOrId, project)
	}
	return d, nil
}

// File finds a file in the dataset by its name, relative path or path.
func File(ctx context.Context, client rest.MLStudioClient, project string, dataset string, key string) (datasets.File, error) {
	detail, err := client.GetDatasetDetail(ctx, project, dataset)
	if err != nil {
		return datasets.File{}, err
	}
	f, ok := utils.First(detail.Files, func(f datasets.File) bool {
		return f.RelativePath == key || f.Path == key
	})
	if !ok {
		f, ok = utils.First(detail.Files, func(f datasets.File) bool { return f.Name == key })
	}
	if !ok {
		return datasets.File{}, cerr.New(
			fmt.Sprintf("file '%s' is not found in dataset '%s'", key, dataset),
			cerr.WithHint(fmt.Sprintf("`mlstudio dataset show %s` lists files", dataset)),
		)
	}
	return f, nil
}
