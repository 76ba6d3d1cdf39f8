package step

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"provisionapi/config"
	"provisionapi/pkg/logger"
	"provisionapi/services/hosting"
)

// GitHub Actions workflow expressions use ${{ }}, so the template swaps Go
// delimiters for [[ ]].
const workflowTemplate = `name: Deploy [[.ApplicationName]]

on:
  push:
    branches:
      - [[.BaseBranch]]

jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - name: Deploy over SSH
        uses: appleboy/ssh-action@v1
        with:
          host: ${{ secrets.DEPLOY_HOST }}
          username: ${{ secrets.DEPLOY_USER }}
          key: ${{ secrets.DEPLOY_KEY }}
          script: |
            cd [[.Pathname]]/current
            git pull origin [[.BaseBranch]]
`

type workflowParams struct {
	ApplicationName string
	BaseBranch      string
	Pathname        string
}

// deployWorkflowStep renders the deploy workflow file and opens a pull
// request adding it to the selected repository. Each run proposes the
// change on a fresh timestamped branch; merging is left to the operator.
type deployWorkflowStep struct{}

func (s *deployWorkflowStep) Name() string {
	return StepDeployWorkflowUpdate
}

func (s *deployWorkflowStep) RequiredInputs() []string {
	return nil
}

func (s *deployWorkflowStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	app := sc.App
	in := sc.Inputs

	token := in.GithubToken
	if token == "" {
		token = app.GithubToken
	}
	if token == "" {
		return &Result{Success: false, Message: "No hosting token on record. Re-verify the connection with a token first."}, nil
	}

	selected := in.SelectedRepo
	if selected == "" {
		selected = app.SelectedRepo
	}
	if selected == "" {
		return &Result{Success: false, Message: "No repository selected. Run deploy-key-generation first or supply selectedRepo."}, nil
	}
	owner, repo, err := splitRepo(selected)
	if err != nil {
		return &Result{Success: false, Message: err.Error()}, nil
	}

	pathname := in.Pathname
	if pathname == "" {
		pathname = app.Pathname
	}
	if pathname == "" {
		return &Result{Success: false, Message: "No pathname on record. Run folder-setup first or supply a pathname."}, nil
	}

	content, err := renderWorkflow(workflowParams{
		ApplicationName: app.ApplicationName,
		BaseBranch:      config.Cfg.WorkflowBaseBranch,
		Pathname:        pathname,
	})
	if err != nil {
		return nil, err
	}

	branch := fmt.Sprintf("provision/deploy-workflow-%s", time.Now().Format("20060102150405"))
	pr, err := sc.Hosting.OpenPullRequest(ctx, token, owner, repo, branch, config.Cfg.WorkflowBaseBranch,
		fmt.Sprintf("Add deploy workflow for %s", app.ApplicationName),
		"Automated deployment workflow generated during provisioning.",
		[]hosting.FileChange{{
			Path:    ".github/workflows/deploy.yml",
			Content: content,
			Message: fmt.Sprintf("Add deploy workflow for %s", app.ApplicationName),
		}})
	if err != nil {
		return nil, fmt.Errorf("open pull request: %w", err)
	}

	if err := sc.Apps.UpdateFields(nil, app.ID, map[string]interface{}{
		"status": "deploy workflow proposed",
	}); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	logger.Infof("Deploy workflow PR #%d opened on %s for application %d", pr.Number, selected, app.ID)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Deploy workflow pull request #%d opened on %s", pr.Number, selected),
		Data: map[string]interface{}{
			"prNumber":   pr.Number,
			"prUrl":      pr.URL,
			"branch":     branch,
			"repository": selected,
		},
	}, nil
}

func renderWorkflow(params workflowParams) (string, error) {
	tmpl, err := template.New("workflow").Delims("[[", "]]").Parse(workflowTemplate)
	if err != nil {
		return "", fmt.Errorf("parse workflow template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render workflow template: %w", err)
	}
	return buf.String(), nil
}
