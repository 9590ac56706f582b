package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/openaleph/openaleph-search/internal/search"
)

const cacheTTL = 5 * time.Minute

func cmdContext() context.Context {
	return context.Background()
}

// printResult renders a search.Result as indented JSON, coloring the
// summary line the way the teacher's `app/app.go: api.Log` colors console
// output for success/failure.
func printResult(res *search.Result, err error) error {
	if err != nil {
		fmt.Println(color.RedString(err.Error()))
		return err
	}
	fmt.Println(color.GreenString(fmt.Sprintf("%d hits (showing %d)", res.Total, len(res.Results))))
	body, marshalErr := json.MarshalIndent(res, "", "  ")
	if marshalErr != nil {
		return marshalErr
	}
	fmt.Println(string(body))
	return nil
}
