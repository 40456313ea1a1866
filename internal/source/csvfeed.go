package source

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"

	"github.com/palmgate/leadgen-cli/internal/model"
)

const csvFeedName = "csv_feed"

// csvColumns maps feed header names to lead attribute keys. Unknown columns
// are ignored so partner export format changes don't break the feed.
var csvColumns = map[string]string{
	"name":          model.AttrName,
	"email":         model.AttrEmail,
	"phone":         model.AttrPhone,
	"budget":        model.AttrBudget,
	"area":          model.AttrArea,
	"property_type": model.AttrPropertyType,
	"bedrooms":      model.AttrBedrooms,
	"listing_url":   model.AttrListingURL,
}

// CSVFeedAdapter pulls a partner's lead export over FTP.
type CSVFeedAdapter struct {
	host     string
	user     string
	password string
	path     string
	now      func() time.Time
}

// NewCSVFeedAdapter creates the adapter. host should include the port
// (e.g. "ftp.partner.ae:21").
func NewCSVFeedAdapter(host, user, password, path string) *CSVFeedAdapter {
	return &CSVFeedAdapter{
		host:     host,
		user:     user,
		password: password,
		path:     path,
		now:      time.Now,
	}
}

func (a *CSVFeedAdapter) Name() string { return csvFeedName }

func (a *CSVFeedAdapter) Fetch(ctx context.Context) ([]model.Lead, error) {
	conn, err := ftp.Dial(a.host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: eris.Wrap(err, "dial")}
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(a.user, a.password); err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: eris.Wrap(err, "login")}
	}

	resp, err := conn.Retr(a.path)
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: eris.Wrap(err, "retrieve "+a.path)}
	}
	defer resp.Close() //nolint:errcheck

	leads, err := a.parse(resp)
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Err: err}
	}
	return leads, nil
}

// parse reads the export's CSV rows into leads. The first row must be a
// header; rows with a column count mismatch are skipped, not fatal.
func (a *CSVFeedAdapter) parse(r io.Reader) ([]model.Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	attrKeys := make([]string, len(header))
	for i, col := range header {
		attrKeys[i] = csvColumns[strings.ToLower(strings.TrimSpace(col))]
	}

	var leads []model.Lead
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read row")
		}
		if len(row) != len(header) {
			continue
		}

		attrs := make(map[string]string, len(row))
		for i, value := range row {
			key := attrKeys[i]
			value = strings.TrimSpace(value)
			if key == "" || value == "" {
				continue
			}
			attrs[key] = value
		}
		if len(attrs) == 0 {
			continue
		}
		leads = append(leads, model.NewLead(a.Name(), attrs, a.now()))
	}
	return leads, nil
}
