package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fyerfyer/tsqueue/internal/queueservice"
	"github.com/spf13/cobra"
)

// listCmd 表示list命令，用于列出所有队列
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all queues",
	Long:  `Display a list of all available queues and their basic information.`,
	Run: func(cmd *cobra.Command, args []string) {
		service := GetQueueService()

		queues := service.ListQueues()
		if len(queues) == 0 {
			fmt.Println("No queues available.")
			return
		}

		verbose, _ := cmd.Flags().GetBool("verbose")

		if verbose {
			// 详细模式：显示每个队列的完整信息
			fmt.Printf("Found %d queue(s):\n\n", len(queues))
			for i, info := range queues {
				if i > 0 {
					fmt.Println("---")
				}
				fmt.Print(queueservice.FormatQueueInfo(info))
			}
			return
		}

		// 表格模式
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATE\tSIZE\tOPERATIONS")

		for _, info := range queues {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d push, %d pop\n",
				info.Name,
				queueservice.FormatState(info.Stats),
				info.Stats.Size,
				info.Stats.Pushed,
				info.Stats.Popped)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("verbose", "v", false, "Show detailed information for each queue")
}
