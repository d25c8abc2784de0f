package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sqlite2pg/internal/integrity"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the source database without touching any target",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}

		src, err := openSource(cfg.Source.Path)
		if err != nil {
			return err
		}
		defer src.Close()

		logrus.Infof("Checking %s ...", cfg.Source.Path)
		health, err := integrity.Check(src)
		if err != nil {
			return err
		}

		fmt.Println("Source integrity: OK")
		fmt.Printf("%-24s %12s\n", "TABLE", "ROWS")
		for _, name := range health.Tables {
			fmt.Printf("%-24s %12d\n", name, health.RowCounts[name])
		}
		fmt.Println("--------------------------------------")
		fmt.Printf("%-24s %12d\n", fmt.Sprintf("total (%d tables)", len(health.Tables)), health.TotalRows())
		if health.FKIssues > 0 {
			logrus.Warnf("%d dangling foreign key references found; affected rows may fail to migrate", health.FKIssues)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
