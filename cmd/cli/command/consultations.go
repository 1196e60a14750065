package command

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schooladmin/cmd/cli/command/client"
	"schooladmin/internal/microservices/http-api/dto"
	"schooladmin/internal/table"
)

// consultationColumns mirror the dashboard table.
var consultationColumns = []table.Column[dto.ConsultationRow]{
	{Key: "id", Title: "ID", Sortable: true, Render: func(r dto.ConsultationRow) string { return fmt.Sprint(r.ID) }},
	{Key: "name", Title: "Name", Sortable: true, Render: func(r dto.ConsultationRow) string { return r.Name }},
	{Key: "email", Title: "Email", Sortable: true, Render: func(r dto.ConsultationRow) string { return r.Email }},
	{Key: "phone", Title: "Phone", Sortable: true, Render: func(r dto.ConsultationRow) string { return r.Phone }},
	{Key: "menu", Title: "Program", Render: func(r dto.ConsultationRow) string { return r.MenuName }},
	{Key: "created_at", Title: "Created", Sortable: true, Render: func(r dto.ConsultationRow) string {
		return r.CreatedAt.Local().Format(time.DateOnly)
	}},
}

var consultationsCmd = &cobra.Command{
	Use:   "consultations",
	Short: "Consultation request commands",
}

// buildConsultationState replays the flags as table events: page size first
// (it resets the page), then the page, then every sort click in order.
func buildConsultationState(page, pageSize int, sorts []string) (table.State[uint64, dto.ConsultationRow], error) {
	ctrl := table.NewController[uint64](consultationColumns...)

	if pageSize != table.DefaultPageSize {
		if pageSize < 1 {
			return ctrl.State(), fmt.Errorf("page size must be positive")
		}
		ctrl.Dispatch(table.ChangePageSizeEvent{PageSize: pageSize})
	}
	if page < 1 {
		return ctrl.State(), fmt.Errorf("page must be at least 1")
	}
	ctrl.Dispatch(table.ChangePageEvent{PageIndex: page})

	for _, key := range sorts {
		if !sortableColumn(key) {
			return ctrl.State(), fmt.Errorf("column %q is not sortable", key)
		}
		ctrl.Dispatch(table.SortEvent{Column: key})
	}
	return ctrl.State(), nil
}

func sortableColumn(key string) bool {
	for _, col := range consultationColumns {
		if col.Key == key {
			return col.Sortable
		}
	}
	return false
}

var listConsultationsCmd = &cobra.Command{
	Use:   "list",
	Short: "Page through consultation requests",
	Long: `Page through consultation requests. --sort may be repeated; each one acts
like a click on the column header (asc, then desc, then unsorted).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		sorts, _ := cmd.Flags().GetStringArray("sort")
		search, _ := cmd.Flags().GetString("search")

		state, err := buildConsultationState(page, pageSize, sorts)
		if err != nil {
			return err
		}

		c, err := authedClient()
		if err != nil {
			return err
		}
		resp, err := c.ListConsultations(state.Query(search))
		if err != nil {
			if client.IsStatus(err, http.StatusBadRequest) {
				return fmt.Errorf("the server rejected the query: %w", err)
			}
			return fmt.Errorf("failed to list consultations: %w", err)
		}

		printConsultationTable(state, resp)
		return nil
	},
}

var refreshConsultationsCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch consultations into the notification list",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		resp, err := c.RefreshConsultations()
		if err != nil {
			if client.IsStatus(err, http.StatusTooManyRequests) {
				return fmt.Errorf("refreshed too recently, try again in a few seconds")
			}
			return err
		}
		printSuccess("Refreshed, %d new notification(s).", resp.Added)
		return nil
	},
}

func printConsultationTable(state table.State[uint64, dto.ConsultationRow], resp *dto.ConsultationListResponse) {
	if table.ShowEmptyState(len(resp.Data), false) {
		mutedColor.Println("No consultations found.")
		return
	}

	headers := make([]string, 0, len(consultationColumns))
	for _, col := range consultationColumns {
		title := col.Title
		if col.Key == state.SortBy {
			arrow := "↑"
			if state.SortOrder == table.SortDesc {
				arrow = "↓"
			}
			title += " " + arrow
		}
		headers = append(headers, title)
	}
	headerColor.Println(strings.Join(headers, " | "))

	for _, row := range resp.Data {
		cells := make([]string, 0, len(consultationColumns))
		for _, col := range consultationColumns {
			cells = append(cells, col.Render(row))
		}
		fmt.Println(strings.Join(cells, " | "))
	}

	p := resp.Pagination
	nav := color.New(color.FgHiBlack).Sprintf("page %d of %d, %d total", p.Page, p.TotalPages, p.Total)
	if p.HasPrevious {
		nav = "◀ " + nav
	}
	if p.HasNext {
		nav += " ▶"
	}
	fmt.Println(nav)
}

func init() {
	consultationsCmd.AddCommand(listConsultationsCmd)
	consultationsCmd.AddCommand(refreshConsultationsCmd)

	listConsultationsCmd.Flags().Int("page", table.DefaultPageIndex, "Page number (1-based)")
	listConsultationsCmd.Flags().Int("page-size", table.DefaultPageSize, fmt.Sprintf("Rows per page, e.g. %v", table.AllowedPageSizes))
	listConsultationsCmd.Flags().StringArray("sort", nil, "Column header click: id, name, email, phone, created_at (repeatable)")
	listConsultationsCmd.Flags().StringP("search", "q", "", "Search name, email or phone")
}
