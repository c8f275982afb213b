package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/drive"
	"github.com/andresuchdata/salesreport/internal/report"
	"github.com/andresuchdata/salesreport/internal/service"
	"github.com/urfave/cli/v2"
)

func runIngest(c *cli.Context) error {
	svc := reportService(c)

	var (
		ds  *domain.Dataset
		err error
	)
	switch {
	case c.String("object") != "":
		ds, err = svc.IngestObject(c.Context, c.String("object"))
	case c.String("drive") != "":
		ds, err = svc.IngestDriveFile(c.Context, c.String("drive"))
	case c.Args().Len() == 1:
		ds, err = ingestPath(c, svc, c.Args().First())
	default:
		return cli.Exit("ingest needs a path, --object or --drive", 2)
	}
	if err != nil {
		return err
	}

	printDataset(c.App.Writer, ds)
	return nil
}

func runRefresh(c *cli.Context) error {
	ds, err := reportService(c).RefreshRemote(c.Context)
	if err != nil {
		return err
	}
	printDataset(c.App.Writer, ds)
	return nil
}

func runReset(c *cli.Context) error {
	svc := reportService(c)
	if err := svc.Reset(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "state cleared, active source: %s\n", svc.Active().Kind())
	return nil
}

func runListObjects(c *cli.Context) error {
	objects, err := reportService(c).ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE")
	for _, o := range objects {
		fmt.Fprintf(w, "%s\t%d\n", o.Key, o.Size)
	}
	return w.Flush()
}

func runListDriveFiles(c *cli.Context) error {
	files, err := reportService(c).ListDriveFiles(c.Context, c.String("folder"))
	if err != nil {
		return err
	}
	return printTable(c.App.Writer, []string{"ID", "NAME", "MODIFIED"}, files, func(f *drive.File) []string {
		return []string{f.ID, f.Name, f.ModifiedTime}
	})
}

func runShow(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("show needs exactly one view name", 2)
	}
	return printView(c, reportService(c), c.Args().First())
}

func runReport(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("report needs a file path", 2)
	}
	svc := reportService(c)
	if _, err := ingestPath(c, svc, c.Args().First()); err != nil {
		return err
	}
	return printView(c, svc, c.String("view"))
}

func ingestPath(c *cli.Context, svc *service.ReportService, path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReadFailure, err)
	}
	defer f.Close()
	return svc.IngestFile(c.Context, path, f)
}

func viewQuery(c *cli.Context) (service.ViewQuery, error) {
	start, err := report.ParseDay(c.String("start"))
	if err != nil {
		return service.ViewQuery{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := report.ParseDay(c.String("end"))
	if err != nil {
		return service.ViewQuery{}, fmt.Errorf("invalid --end: %w", err)
	}
	return service.ViewQuery{Start: start, End: end, Search: c.String("q"), Limit: c.Int("limit")}, nil
}

func printView(c *cli.Context, svc *service.ReportService, view string) error {
	q, err := viewQuery(c)
	if err != nil {
		return err
	}
	asJSON := c.Bool("json")
	out := c.App.Writer
	view = strings.ToLower(view)

	switch view {
	case "summary":
		s, err := svc.Summary()
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, s)
		}
		printSummary(out, s)
	case "customers":
		v, err := svc.Customers(q)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, v)
		}
		return printTable(out, []string{"CUSTOMER", "AMOUNT", "MEMBER ID", "STOCKIEST ID", "DATE"}, v.Items, func(e domain.CustomerSales) []string {
			return []string{e.Name, report.Money(e.Amount), e.MemberID, e.StockiestID, e.Date}
		})
	case "products", "promotions":
		list := svc.Products
		if view == "promotions" {
			list = svc.Promotions
		}
		v, err := list(q)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, v)
		}
		return printTable(out, []string{"PRODUCT", "CODE", "QUANTITY", "TOTAL PRICE", "DATE"}, v.Items, func(e domain.ProductQuantity) []string {
			return []string{e.Name, e.ProductID, fmt.Sprint(e.Quantity), report.Money(e.TotalPrice), e.Date}
		})
	case "branches", "stockiest":
		list := svc.Branches
		if view == "stockiest" {
			list = svc.StockiestBranches
		}
		v, err := list(q)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, v)
		}
		return printTable(out, []string{"BRANCH", "AMOUNT", "DATE"}, v.Items, func(e domain.BranchSales) []string {
			return []string{e.Branch, report.Money(e.Amount), e.Date}
		})
	case "daily":
		v, err := svc.Daily(q, false)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, v)
		}
		header := append([]string{"DATE"}, v.Branches...)
		return printTable(out, header, v.Days, func(e domain.DailyBranchSales) []string {
			row := []string{e.Date}
			for _, b := range v.Branches {
				row = append(row, report.Money(e.Amounts[b]))
			}
			return row
		})
	case "types":
		v, err := svc.PurchaseTypes(q)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, v)
		}
		return printTable(out, []string{"TYPE", "PURCHASES"}, v.Items, func(e domain.PurchaseTypeCount) []string {
			return []string{e.Type, fmt.Sprint(e.Count)}
		})
	default:
		return cli.Exit(fmt.Sprintf("unknown view %q", view), 2)
	}
	return nil
}

func printTable[E any](w io.Writer, header []string, items []E, row func(E) []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, item := range items {
		fmt.Fprintln(tw, strings.Join(row(item), "\t"))
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s *service.SummaryView) {
	fmt.Fprintf(w, "Source:            %s (%s)\n", s.FileName, s.Source)
	fmt.Fprintf(w, "Date range:        %s\n", s.DateRange.Display)
	fmt.Fprintf(w, "Total sales:       %s\n", s.TotalSalesDisplay)
	fmt.Fprintf(w, "Purchases:         %d (%d non-stockiest)\n", s.PurchaseCount, s.NonStockiestPurchaseCount)
	fmt.Fprintf(w, "Promotion qty:     %d\n", s.TotalPromotionQuantity)
	fmt.Fprintf(w, "Top product:       %s (%d)\n", s.TopProduct.Name, s.TopProduct.Quantity)
	fmt.Fprintf(w, "Customers/products/branches: %d/%d/%d\n", s.CustomerCount, s.ProductCount, s.BranchCount)
}

func printDataset(w io.Writer, ds *domain.Dataset) {
	fmt.Fprintf(w, "ingested %s as %s: %d purchases, %s - %s\n",
		ds.FileName, ds.ID, ds.Aggregates.PurchaseCount,
		report.FormatDate(ds.DateRange.Start), report.FormatDate(ds.DateRange.End))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
