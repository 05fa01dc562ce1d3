package misc

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"

	log "github.com/sirupsen/logrus"
)

//go:embed quotes.csv
var defaultQuotesCsv string

var ErrNoQuotes = errors.New("no quotes loaded")

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Topic  string `json:"topic"`
}

type QuotesManager struct {
	Quotes      []*Quote
	TopicQuotes map[string][]*Quote
}

// NewDefaultQuoteManager loads the quotes bundled with the binary.
func NewDefaultQuoteManager() (*QuotesManager, error) {
	return NewQuoteManager(csv.NewReader(strings.NewReader(defaultQuotesCsv)))
}

// NewQuoteManager reads QUOTE;AUTHOR;TOPIC records.
func NewQuoteManager(quotesCsvReader *csv.Reader) (*QuotesManager, error) {
	qm := &QuotesManager{
		TopicQuotes: make(map[string][]*Quote),
	}

	quotesCsvReader.Comma = ';'
	for {
		record, err := quotesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != 3 {
			return nil, fmt.Errorf("record [%s] does not have 3 elements", record)
		}

		quote := &Quote{
			Text:   record[0],
			Author: record[1],
			Topic:  strings.ToLower(record[2]),
		}
		qm.Quotes = append(qm.Quotes, quote)
		qm.TopicQuotes[quote.Topic] = append(qm.TopicQuotes[quote.Topic], quote)
	}

	log.Debugf("quotes CSV read %d quotes", len(qm.Quotes))
	return qm, nil
}

// RandomQuote picks from the given topic, or from all quotes when topic is empty.
func (qm *QuotesManager) RandomQuote(topic string) (*Quote, error) {
	quotes := qm.Quotes
	if topic != "" {
		quotes = qm.TopicQuotes[strings.ToLower(topic)]
	}
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return quotes[rand.Intn(len(quotes))], nil
}
