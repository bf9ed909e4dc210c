package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"thesis-hub/backend/internal/repository"
	"thesis-hub/backend/internal/seed"
	"thesis-hub/backend/internal/service"
)

var (
	seedFile     string
	seedOnly     string
	seedCallerID string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "从 YAML 文件写入同义词、导师与学生",
	Long: `从 YAML 文件写入基础数据，文件可包含 synonyms / advisors / students 三个段落。

导师走与 Excel 导入相同的校验，逐行输出失败原因；
已存在邮箱的学生会被跳过，可重复执行。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return errors.New("必须通过 -f 指定种子文件")
		}
		f, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}
		if err := filterSections(f, seedOnly); err != nil {
			return err
		}

		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(db)
		defer logger.Sync()

		svc := service.NewService(cfg, repository.NewRepository(db), nil, logger)
		report, err := seed.NewSeeder(svc, seedCallerID, logger).Apply(cmd.Context(), f)
		if report != nil {
			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		return err
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "种子 YAML 文件路径")
	seedCmd.Flags().StringVar(&seedOnly, "only", "", "仅写入指定段落: synonyms | advisors | students")
	seedCmd.Flags().StringVar(&seedCallerID, "created-by", "", "记录为创建者的用户 ID")
}

// filterSections 按 --only 清空其余段落
func filterSections(f *seed.File, only string) error {
	switch only {
	case "":
	case "synonyms":
		f.Advisors, f.Students = nil, nil
	case "advisors":
		f.Synonyms, f.Students = nil, nil
	case "students":
		f.Synonyms, f.Advisors = nil, nil
	default:
		return fmt.Errorf("--only 仅支持 synonyms/advisors/students，当前为 %q", only)
	}
	return nil
}
