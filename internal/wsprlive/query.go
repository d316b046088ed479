package wsprlive

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public ClickHouse HTTP endpoint of the spot database.
const DefaultBaseURL = "https://db1.wspr.live/"

// queryTimeLayout matches the toDateTime literal format.
const queryTimeLayout = "2006-01-02 15:04:05"

// Query describes one spot-database selection. The zero value selects
// nothing useful; start from DefaultQuery or fill the window explicitly.
type Query struct {
	Start time.Time
	End   time.Time
	// Bands restricts the selection to the listed band identifiers; empty
	// means all bands.
	Bands []string
	// Limit caps the returned row count; zero means no limit.
	Limit int
}

// DefaultQuery selects the recovered search window with no band restriction.
func DefaultQuery() Query {
	return Query{
		Start: time.Date(2014, time.March, 8, 18, 25, 0, 0, time.UTC),
		End:   time.Date(2014, time.March, 9, 0, 19, 59, 0, time.UTC),
	}
}

// SQL renders the ClickHouse statement for this query.
func (q Query) SQL() string {
	const fields = "time,band,tx_sign,tx_lat,tx_lon,rx_sign,rx_lat,rx_lon,frequency,snr,drift,power,distance"

	where := []string{
		fmt.Sprintf("time >= toDateTime('%s')", q.Start.UTC().Format(queryTimeLayout)),
		fmt.Sprintf("time <= toDateTime('%s')", q.End.UTC().Format(queryTimeLayout)),
	}
	if bands := cleanBands(q.Bands); len(bands) > 0 {
		where = append(where, fmt.Sprintf("band IN (%s)", strings.Join(bands, ",")))
	}

	sql := fmt.Sprintf("SELECT %s FROM wspr.rx WHERE %s ORDER BY time ASC", fields, strings.Join(where, " AND "))
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return sql + " FORMAT CSV"
}

// URL renders the full request URL against a base endpoint, defaulting to
// the public database. The statement is fully percent-encoded, spaces
// included, matching what the endpoint expects on its query parameter.
func (q Query) URL(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/?query=" + escapeQuery(q.SQL())
}

// escapeQuery percent-encodes everything outside the unreserved set.
// url.QueryEscape gets close but renders spaces as "+".
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func cleanBands(bands []string) []string {
	out := make([]string, 0, len(bands))
	for _, b := range bands {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
