package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wrtpod/wrtpod/internal/adapters/out/podman"
	"github.com/wrtpod/wrtpod/internal/boundaries/in"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/internal/usecase/pull"
	"github.com/wrtpod/wrtpod/internal/usecase/update"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check and apply container auto-updates",
}

var updateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List containers labelled for auto-update",
	Run:   runUpdateList,
}

var updateCheckCmd = &cobra.Command{
	Use:   "check [container...]",
	Short: "Check which containers have a newer image available",
	Run:   runUpdateCheck,
}

var updateApplyCmd = &cobra.Command{
	Use:   "apply [container...]",
	Short: "Update containers to their latest images",
	Long: `Pull the latest image for each named container (or every
auto-update candidate when no names are given) and recreate it with its
original creation parameters.`,
	Run: runUpdateApply,
}

func init() {
	updateCmd.AddCommand(updateListCmd)
	updateCmd.AddCommand(updateCheckCmd)
	updateCmd.AddCommand(updateApplyCmd)
	rootCmd.AddCommand(updateCmd)
}

func newUpdateService(cmd *cobra.Command) *update.Service {
	client, err := podman.NewClient(socketPath(cmd))
	if err != nil {
		logger.Fatal("failed to connect to podman", "error", err)
	}
	return update.NewService(client, pull.NewClient(client), nil)
}

// resolveCandidates narrows the candidate list to the names given on
// the command line; no names selects everything.
func resolveCandidates(candidates []domain.AutoUpdateCandidate, names []string) ([]domain.AutoUpdateCandidate, error) {
	if len(names) == 0 {
		return candidates, nil
	}

	byName := map[string]domain.AutoUpdateCandidate{}
	for _, candidate := range candidates {
		byName[candidate.Name] = candidate
	}

	selected := make([]domain.AutoUpdateCandidate, 0, len(names))
	for _, name := range names {
		candidate, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("container %q is not an auto-update candidate", name)
		}
		selected = append(selected, candidate)
	}
	return selected, nil
}

func runUpdateList(cmd *cobra.Command, args []string) {
	service := newUpdateService(cmd)

	candidates, err := service.Candidates(cmd.Context())
	if err != nil {
		logger.Fatal("failed to list candidates", "error", err)
	}

	if len(candidates) == 0 {
		fmt.Println("No containers carry the auto-update label.")
		return
	}
	for _, candidate := range candidates {
		state := "stopped"
		if candidate.Running {
			state = "running"
		}
		fmt.Printf("%-24s %-40s %-8s policy=%s\n", candidate.Name, candidate.Image, state, candidate.Policy)
	}
}

func runUpdateCheck(cmd *cobra.Command, args []string) {
	service := newUpdateService(cmd)

	candidates, err := service.Candidates(cmd.Context())
	if err != nil {
		logger.Fatal("failed to list candidates", "error", err)
	}
	selected, err := resolveCandidates(candidates, args)
	if err != nil {
		logger.Fatal(err.Error())
	}

	results := service.CheckForUpdates(cmd.Context(), selected, func(c domain.AutoUpdateCandidate, index, total int) {
		fmt.Printf("[%d/%d] checking %s (%s)\n", index, total, c.Name, c.Image)
	})

	updatesAvailable := 0
	for _, result := range results {
		switch {
		case result.Error != "":
			fmt.Printf("  %-24s check failed: %s\n", result.Name, result.Error)
		case result.HasUpdate:
			updatesAvailable++
			fmt.Printf("  %-24s update available (%s -> %s)\n", result.Name, short(result.CurrentDigest), short(result.RemoteDigest))
		default:
			fmt.Printf("  %-24s up to date\n", result.Name)
		}
	}
	fmt.Printf("%d of %d containers have updates available.\n", updatesAvailable, len(results))
}

func runUpdateApply(cmd *cobra.Command, args []string) {
	service := newUpdateService(cmd)

	candidates, err := service.Candidates(cmd.Context())
	if err != nil {
		logger.Fatal("failed to list candidates", "error", err)
	}
	selected, err := resolveCandidates(candidates, args)
	if err != nil {
		logger.Fatal(err.Error())
	}
	if len(selected) == 0 {
		fmt.Println("Nothing to update.")
		return
	}

	result := service.UpdateContainers(cmd.Context(), selected, in.BatchHooks{
		OnContainerStart: func(c domain.AutoUpdateCandidate, index, total int) {
			fmt.Printf("[%d/%d] updating %s\n", index, total, c.Name)
		},
		OnContainerStep: func(c domain.AutoUpdateCandidate, step int, message string) {
			fmt.Printf("  %s\n", message)
		},
		OnContainerComplete: func(c domain.AutoUpdateCandidate, r domain.UpdateResult, index, total int) {
			if r.Success {
				fmt.Printf("  %s updated\n", c.Name)
				return
			}
			fmt.Printf("  %s failed: %s\n", c.Name, r.Error)
			if len(r.CreateCommand) > 0 {
				fmt.Printf("  recreate manually with: %v\n", r.CreateCommand)
			}
		},
	})

	fmt.Printf("updated %d, failed %d, total %d\n", len(result.Successes), len(result.Failures), result.Total)
	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}

func short(digest string) string {
	const visible = 19 // sha256: plus 12 hex chars
	if len(digest) > visible {
		return digest[:visible]
	}
	return digest
}
