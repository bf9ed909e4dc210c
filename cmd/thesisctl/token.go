package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"thesis-hub/backend/config"
	"thesis-hub/backend/pkg/jwt"
)

var (
	tokenUserID string
	tokenRole   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发本地调试用的访问 Token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID == "" {
			return errors.New("必须通过 --user-id 指定用户")
		}
		switch tokenRole {
		case jwt.RoleStudent, jwt.RoleAdvisor, jwt.RoleAdmin:
		default:
			return fmt.Errorf("--role 仅支持 student/advisor/admin，当前为 %q", tokenRole)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		token, err := jwt.NewManager(&cfg.Auth).Issue(tokenUserID, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "学生或导师 ID（管理员可任意）")
	tokenCmd.Flags().StringVar(&tokenRole, "role", jwt.RoleStudent, "角色: student | advisor | admin")
}
