package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// Eval sends one expression to the database server's interpreter and returns
// the raw result. This is the workhorse operation: most framework commands
// against the server are expressions over its scripting interface.
func (c *Client) Eval(ctx context.Context, expr string) (json.RawMessage, error) {
	return c.Call(ctx, "eval", map[string]any{"expr": expr})
}

// ListCells returns the cell names of a library known to the server.
func (c *Client) ListCells(ctx context.Context, library string) ([]string, error) {
	data, err := c.Call(ctx, "list_cells", map[string]any{"lib": library})
	if err != nil {
		return nil, err
	}
	var cells []string
	if err := json.Unmarshal(data, &cells); err != nil {
		return nil, fmt.Errorf("dbclient: malformed cell list: %w", err)
	}
	return cells, nil
}

// ExportNetlist asks the server to write a netlist for one cell to the given
// path. The netlist itself travels through the filesystem, not this channel.
func (c *Client) ExportNetlist(ctx context.Context, library, cell, outPath string) error {
	_, err := c.Call(ctx, "export_netlist", map[string]any{
		"lib":  library,
		"cell": cell,
		"path": outPath,
	})
	return err
}
