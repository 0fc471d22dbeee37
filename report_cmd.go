package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"finance/models"
	"finance/service"
	"finance/store"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var (
		userID uint
		months int
		start  string
		end    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "在终端输出用户的财务报表",
		Long:  "输出收支汇总、预算消耗、类别占比和月度趋势，类别占比默认统计本月",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			today := models.Today()
			from, to := today.FirstOfMonth(), today
			if start != "" {
				if from, err = models.ParseDate(start); err != nil {
					return fmt.Errorf("开始日期格式错误: %w", err)
				}
			}
			if end != "" {
				if to, err = models.ParseDate(end); err != nil {
					return fmt.Errorf("结束日期格式错误: %w", err)
				}
			}

			ctx := cmd.Context()
			reports := newReportService(ctx, cfg)
			out := cmd.OutOrStdout()

			sum, err := reports.Summary(ctx, userID, store.TransactionFilter{})
			if err != nil {
				return fmt.Errorf("计算汇总失败: %w", err)
			}
			budgets, err := reports.Budgets(ctx, userID, nil)
			if err != nil {
				return fmt.Errorf("计算预算失败: %w", err)
			}
			byCategory, err := reports.ByCategory(ctx, userID, from, to)
			if err != nil {
				return fmt.Errorf("计算类别占比失败: %w", err)
			}
			trend, err := reports.MonthlyTrend(ctx, userID, months)
			if err != nil {
				return fmt.Errorf("计算月度趋势失败: %w", err)
			}

			writeTextReport(out, &service.Dashboard{
				Summary:    sum,
				Budgets:    budgets,
				ByCategory: byCategory,
				Trend:      trend,
				StartDate:  from,
				EndDate:    to,
			})
			return nil
		},
	}

	cmd.Flags().UintVarP(&userID, "user", "u", 0, "用户 ID")
	cmd.Flags().IntVarP(&months, "months", "m", 0, "月度趋势的月数（默认取配置）")
	cmd.Flags().StringVar(&start, "start", "", "类别占比开始日期 YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "类别占比结束日期 YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// writeTextReport 以表格形式输出报表
func writeTextReport(out io.Writer, d *service.Dashboard) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "== 收支汇总 ==")
	fmt.Fprintf(w, "收入\t%s\n", d.Summary.Income.StringFixed(2))
	fmt.Fprintf(w, "支出\t%s\n", d.Summary.Expense.StringFixed(2))
	fmt.Fprintf(w, "结余\t%s\n", d.Summary.Balance.StringFixed(2))

	fmt.Fprintln(w, "\n== 预算 ==")
	if len(d.Budgets) == 0 {
		fmt.Fprintln(w, "暂无预算")
	} else {
		fmt.Fprintln(w, "类别\t周期\t开始\t结束\t已用\t预算\t比例")
		for _, b := range d.Budgets {
			if b.Error != "" {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t-\t%s\t%s\n",
					b.CategoryName, b.Period, b.StartDate, b.EndDate, b.Amount.StringFixed(2), b.Error)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s%%\n",
				b.CategoryName, b.Period, b.StartDate, b.EndDate,
				b.Spent.StringFixed(2), b.Amount.StringFixed(2), b.Percentage.StringFixed(2))
		}
	}

	fmt.Fprintf(w, "\n== 类别占比 (%s ~ %s) ==\n", d.StartDate, d.EndDate)
	if len(d.ByCategory) == 0 {
		fmt.Fprintln(w, "暂无记录")
	} else {
		fmt.Fprintln(w, "类型\t类别\t笔数\t金额\t占比")
		for _, c := range d.ByCategory {
			name := c.CategoryName
			if name == "" {
				name = "未分类"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s%%\n",
				c.Type, name, c.Count, c.Total.StringFixed(2), c.Percentage.StringFixed(1))
		}
	}

	fmt.Fprintln(w, "\n== 月度趋势 ==")
	if len(d.Trend) == 0 {
		fmt.Fprintln(w, "暂无记录")
		return
	}
	fmt.Fprintln(w, "月份\t类型\t金额")
	for _, p := range d.Trend {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Month.String()[:7], p.Type, p.Total.StringFixed(2))
	}
}
