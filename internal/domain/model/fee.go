package model

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodPix        PaymentMethod = "PIX"    // instant transfer
	PaymentMethodBoleto     PaymentMethod = "BOLETO" // deferred voucher
)

// NormalizePaymentMethod upper-cases and trims a user supplied method name.
func NormalizePaymentMethod(s string) PaymentMethod {
	return PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
}

// GatewayRate is the gateway's published pricing for one method.
type GatewayRate struct {
	Percentage decimal.Decimal
	Fixed      decimal.Decimal
}

// gatewayRates mirrors the external gateway price list. It is not runtime configurable.
var gatewayRates = map[PaymentMethod]GatewayRate{
	PaymentMethodCreditCard: {Percentage: decimal.RequireFromString("4.99"), Fixed: decimal.RequireFromString("0.40")},
	PaymentMethodDebitCard:  {Percentage: decimal.RequireFromString("3.99"), Fixed: decimal.RequireFromString("0.40")},
	PaymentMethodPix:        {Percentage: decimal.RequireFromString("0.99"), Fixed: decimal.Zero},
	PaymentMethodBoleto:     {Percentage: decimal.Zero, Fixed: decimal.RequireFromString("3.49")},
}

// CheapestDefaultMethod is used when an unknown method falls back.
const CheapestDefaultMethod = PaymentMethodPix

// PaymentMethods returns all supported methods in a stable order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, 0, len(gatewayRates))
	for m := range gatewayRates {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RateFor returns the rate for a method and whether the method is known.
func RateFor(m PaymentMethod) (GatewayRate, bool) {
	r, ok := gatewayRates[m]
	return r, ok
}

type GatewayFee struct {
	Percentage decimal.Decimal `json:"percentage"`
	Variable   decimal.Decimal `json:"variable"`
	Fixed      decimal.Decimal `json:"fixed"`
	Total      decimal.Decimal `json:"total"`
}

// FeeBreakdown splits a purchase into the gateway's, the platform's and the
// instructor's share. FinalAmount == GatewayFee.Total + PlatformFee + InstructorAmount.
type FeeBreakdown struct {
	CoursePrice           decimal.Decimal `json:"coursePrice"`
	DiscountAmount        decimal.Decimal `json:"discountAmount"`
	FinalAmount           decimal.Decimal `json:"finalAmount"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod"`
	MethodFallback        bool            `json:"methodFallback"`
	GatewayFee            GatewayFee      `json:"gatewayFee"`
	NetAmount             decimal.Decimal `json:"netAmount"`
	PlatformFeePercentage decimal.Decimal `json:"platformFeePercentage"`
	PlatformFee           decimal.Decimal `json:"platformFee"`
	InstructorAmount      decimal.Decimal `json:"instructorAmount"`
}

// UnknownMethodPolicy decides what happens with a method missing from the rate table.
type UnknownMethodPolicy string

const (
	UnknownMethodCheapest UnknownMethodPolicy = "cheapest"
	UnknownMethodReject   UnknownMethodPolicy = "reject"
)

// ComputeBreakdown is pure: no I/O, no clock, no state.
func ComputeBreakdown(price, discount decimal.Decimal, method PaymentMethod, platformFeePct decimal.Decimal, policy UnknownMethodPolicy) (FeeBreakdown, error) {
	if price.IsNegative() {
		return FeeBreakdown{}, domain.ErrNegativePrice
	}
	if discount.IsNegative() {
		return FeeBreakdown{}, domain.ErrNegativeDiscount
	}
	if platformFeePct.IsNegative() || platformFeePct.GreaterThan(decimal.NewFromInt(100)) {
		return FeeBreakdown{}, domain.ErrInvalidFeePercentage
	}

	fallback := false
	rate, ok := RateFor(method)
	if !ok {
		if policy == UnknownMethodReject {
			return FeeBreakdown{}, domain.ErrUnknownPaymentMethod
		}
		method = CheapestDefaultMethod
		rate = gatewayRates[method]
		fallback = true
	}

	final := Round2(MaxZero(price.Sub(discount)))

	variable := Percent(final, rate.Percentage)
	total := Round2(variable.Add(rate.Fixed))
	// The gateway never takes more than what is charged.
	if total.GreaterThan(final) {
		total = final
	}
	net := Round2(final.Sub(total))
	platformFee := Percent(net, platformFeePct)
	instructor := Round2(net.Sub(platformFee))

	return FeeBreakdown{
		CoursePrice:    Round2(price),
		DiscountAmount: Round2(discount),
		FinalAmount:    final,
		PaymentMethod:  method,
		MethodFallback: fallback,
		GatewayFee: GatewayFee{
			Percentage: rate.Percentage,
			Variable:   variable,
			Fixed:      rate.Fixed,
			Total:      total,
		},
		NetAmount:             net,
		PlatformFeePercentage: platformFeePct,
		PlatformFee:           platformFee,
		InstructorAmount:      instructor,
	}, nil
}

// CompareMethods computes a breakdown for every supported method, cheapest
// gateway fee first.
func CompareMethods(price, discount, platformFeePct decimal.Decimal) ([]FeeBreakdown, error) {
	methods := PaymentMethods()
	out := make([]FeeBreakdown, 0, len(methods))
	for _, m := range methods {
		b, err := ComputeBreakdown(price, discount, m, platformFeePct, UnknownMethodReject)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GatewayFee.Total.LessThan(out[j].GatewayFee.Total)
	})
	return out, nil
}
