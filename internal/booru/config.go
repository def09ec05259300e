package booru

import (
	"fmt"
	"strconv"
	"strings"

	"booru-go/internal/database"
	"booru-go/internal/query"
	"booru-go/internal/result"
)

// GetConfig returns the value stored under name. A missing key is NotFound
// and a NULL value is ValueIsNull.
func (b *Booru) GetConfig(name string) (string, error) {
	stmt, err := query.Select("Config").Column("Value").Key("Name").Prepare(b.db)
	if err != nil {
		return "", fmt.Errorf("reading config %s: %w", name, err)
	}
	defer stmt.Close()

	if err := stmt.BindText("Name", name); err != nil {
		return "", fmt.Errorf("reading config %s: %w", name, err)
	}
	value, err := database.ExecuteScalar[string](stmt, true)
	if err != nil {
		return "", fmt.Errorf("reading config %s: %w", name, err)
	}
	return value, nil
}

// SetConfig stores value under name, replacing any previous value.
func (b *Booru) SetConfig(name, value string) error {
	stmt, err := query.Upsert("Config").Columns("Name", "Value").Prepare(b.db)
	if err != nil {
		return fmt.Errorf("writing config %s: %w", name, err)
	}
	defer stmt.Close()

	if err := stmt.BindText("Name", name); err != nil {
		return fmt.Errorf("writing config %s: %w", name, err)
	}
	if err := stmt.BindText("Value", value); err != nil {
		return fmt.Errorf("writing config %s: %w", name, err)
	}
	if _, err := stmt.Step(false); err != nil {
		return fmt.Errorf("writing config %s: %w", name, err)
	}
	return nil
}

// GetConfigInt reads name and parses it as an integer.
func (b *Booru) GetConfigInt(name string) (int64, error) {
	return result.Bind(result.Of(b.GetConfig(name)), func(v string) (int64, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, result.Wrap(result.InvalidArgument, "parsing config "+name, err)
		}
		return n, nil
	}).Get()
}
