package legacy

import (
	"context"
	"fmt"
	"strings"

	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/go-mysql-org/go-mysql/client"
	"github.com/go-mysql-org/go-mysql/mysql"
)

// MySQLSource reads the legacy WordPress database over a single MySQL connection.
type MySQLSource struct {
	conn   *client.Conn
	prefix string
}

// OpenMySQL connects to the legacy database. The caller must Close the source.
func OpenMySQL(cfg shared.LegacyConfig) (*MySQLSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := client.Connect(cfg.Addr(), cfg.User, cfg.Password, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to legacy database at %s: %w", cfg.Addr(), err)
	}

	prefix := cfg.TablePrefix
	if prefix == "" {
		prefix = "wp_"
	}

	return &MySQLSource{conn: conn, prefix: prefix}, nil
}

// SubscribersQuery returns the statement reading the plugin's subscriber table.
func SubscribersQuery(prefix string) string {
	return fmt.Sprintf("SELECT id, email, name, group_name, date_added FROM %smlds_subscribers ORDER BY id", prefix)
}

// PostMetaQuery returns the statement reading allow-listed postmeta rows.
//
// The keys are package constants, so they are inlined as literals.
func PostMetaQuery(prefix string) string {
	quoted := make([]string, len(MetaKeys))
	for i, key := range MetaKeys {
		quoted[i] = "'" + key + "'"
	}
	return fmt.Sprintf(
		"SELECT post_id, meta_key, meta_value FROM %spostmeta WHERE meta_key IN (%s) ORDER BY post_id, meta_id",
		prefix, strings.Join(quoted, ", "),
	)
}

func (s *MySQLSource) execute(ctx context.Context, query string) (*mysql.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.conn.Execute(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLegacyQuery, err)
	}
	return res, nil
}

// Subscribers reads the whole subscriber table.
func (s *MySQLSource) Subscribers(ctx context.Context) ([]Subscriber, error) {
	res, err := s.execute(ctx, SubscribersQuery(s.prefix))
	if err != nil {
		return nil, err
	}

	subscribers := make([]Subscriber, 0, len(res.Values))
	for i := range res.Values {
		var sub Subscriber
		id, err := res.GetIntByName(i, "id")
		if err != nil {
			return nil, fmt.Errorf("%w: subscriber row %d: %v", shared.ErrLegacyQuery, i, err)
		}
		sub.ID = id
		if sub.Email, err = res.GetStringByName(i, "email"); err != nil {
			return nil, fmt.Errorf("%w: subscriber %d email: %v", shared.ErrLegacyQuery, id, err)
		}
		if sub.Name, err = res.GetStringByName(i, "name"); err != nil {
			return nil, fmt.Errorf("%w: subscriber %d name: %v", shared.ErrLegacyQuery, id, err)
		}
		if sub.GroupName, err = res.GetStringByName(i, "group_name"); err != nil {
			return nil, fmt.Errorf("%w: subscriber %d group: %v", shared.ErrLegacyQuery, id, err)
		}
		if sub.DateAdded, err = res.GetStringByName(i, "date_added"); err != nil {
			return nil, fmt.Errorf("%w: subscriber %d date: %v", shared.ErrLegacyQuery, id, err)
		}
		subscribers = append(subscribers, sub)
	}

	return subscribers, nil
}

// PostMeta reads every allow-listed postmeta row.
func (s *MySQLSource) PostMeta(ctx context.Context) ([]PostMeta, error) {
	res, err := s.execute(ctx, PostMetaQuery(s.prefix))
	if err != nil {
		return nil, err
	}

	rows := make([]PostMeta, 0, len(res.Values))
	for i := range res.Values {
		postID, err := res.GetIntByName(i, "post_id")
		if err != nil {
			return nil, fmt.Errorf("%w: postmeta row %d: %v", shared.ErrLegacyQuery, i, err)
		}
		key, err := res.GetStringByName(i, "meta_key")
		if err != nil {
			return nil, fmt.Errorf("%w: postmeta row %d key: %v", shared.ErrLegacyQuery, i, err)
		}
		value, err := res.GetStringByName(i, "meta_value")
		if err != nil {
			return nil, fmt.Errorf("%w: postmeta row %d value: %v", shared.ErrLegacyQuery, i, err)
		}
		rows = append(rows, PostMeta{PostID: postID, Key: key, Value: value})
	}

	return rows, nil
}

// Close releases the connection.
func (s *MySQLSource) Close() error {
	return s.conn.Close()
}
