package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"sisterhood-backend/config"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/users"
)

var (
	pruneKeepEmail string
	pruneYes       bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune-users",
	Short: "Delete every user except the one with the given email",
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().StringVar(&pruneKeepEmail, "email", "", "email of the user to keep (required)")
	pruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	keep := strings.ToLower(strings.TrimSpace(pruneKeepEmail))
	if keep == "" {
		return errors.New("--email is required")
	}
	out := cmd.OutOrStdout()
	if !pruneYes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete all users except %s? [y/N] ", keep)) {
		fmt.Fprintln(out, "aborted")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}

	deleted, err := PruneUsers(cmd.Context(), db, keep)
	if err != nil {
		return fmt.Errorf("prune users: %w", err)
	}
	fmt.Fprintf(out, "deleted %d users\n", deleted)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// PruneUsers удаляет всех пользователей, кроме keepEmail; связанные записи уходят каскадом
func PruneUsers(ctx context.Context, db *gorm.DB, keepEmail string) (int64, error) {
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var keep users.User
		if err := tx.Where("email = ?", keepEmail).First(&keep).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s not found", keepEmail)
			}
			return err
		}
		res := tx.Where("id <> ?", keep.ID).Delete(&users.User{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Logger.WithField("kept", keepEmail).Infof("pruned %d users", deleted)
	return deleted, nil
}
