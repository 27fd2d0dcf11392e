package eventmodels

import (
	"fmt"
	"time"
)

type GreeksDTO struct {
	Delta     float64 `json:"delta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
	Rho       float64 `json:"rho"`
	Phi       float64 `json:"phi"`
	BidIv     float64 `json:"bid_iv"`
	MidIv     float64 `json:"mid_iv"`
	AskIv     float64 `json:"ask_iv"`
	SmvVol    float64 `json:"smv_vol"`
	UpdatedAt string  `json:"updated_at"`
}

// QuoteDTO is a Tradier market quote. Option quotes carry greeks when the
// chain is requested with greeks=true.
type QuoteDTO struct {
	Symbol         string     `json:"symbol"`
	Description    string     `json:"description"`
	Type           string     `json:"type"`
	LastPrice      *float64   `json:"last"`
	Volume         int64      `json:"volume"`
	Bid            *float64   `json:"bid"`
	Ask            *float64   `json:"ask"`
	Underlying     string     `json:"underlying"`
	Strike         float64    `json:"strike"`
	Greeks         *GreeksDTO `json:"greeks"`
	OpenInterest   int64      `json:"open_interest"`
	ExpirationDate string     `json:"expiration_date"`
	OptionType     string     `json:"option_type"`
	RootSymbol     string     `json:"root_symbol"`
}

func valueOf(f *float64) float64 {
	if f == nil {
		return 0
	}

	return *f
}

// ToModel converts an option quote. Tradier returns a greeks object with a zero
// delta while its greeks feed is still warming up, which is treated as missing.
func (dto *QuoteDTO) ToModel() (OptionQuote, error) {
	expirationDate, err := time.Parse("2006-01-02", dto.ExpirationDate)
	if err != nil {
		return OptionQuote{}, fmt.Errorf("QuoteDTO.ToModel: failed to parse expiration date: %w", err)
	}

	quote := OptionQuote{
		ContractSymbol: OptionSymbol(dto.Symbol),
		Underlying:     NewStockSymbol(dto.Underlying),
		OptionType:     OptionType(dto.OptionType),
		Strike:         dto.Strike,
		Expiration:     expirationDate,
		Bid:            valueOf(dto.Bid),
		Ask:            valueOf(dto.Ask),
		Last:           valueOf(dto.LastPrice),
		Volume:         dto.Volume,
		OpenInterest:   dto.OpenInterest,
	}

	quote.Premium = ResolvePremium(quote.Last, quote.Bid, quote.Ask)

	if dto.Greeks != nil {
		quote.ImpliedVolatility = dto.Greeks.MidIv
		if quote.ImpliedVolatility == 0 {
			quote.ImpliedVolatility = dto.Greeks.SmvVol
		}

		if dto.Greeks.Delta != 0 {
			quote.Greeks = &Greeks{
				Delta: dto.Greeks.Delta,
				Gamma: dto.Greeks.Gamma,
				Theta: dto.Greeks.Theta,
				Vega:  dto.Greeks.Vega,
				Rho:   dto.Greeks.Rho,
			}
			quote.GreeksSource = GreeksSourceProvider
		}
	}

	return quote, nil
}
