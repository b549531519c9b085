package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	IntroMessage = "Hey! I'm Luko, a price tracking bot for Amazon products. " +
		"Have a product you're interested in but you aren't willing to pay? " +
		"No PROBLEM! Simply paste the product link here and I'll message you if the price drops."
	GenericErrorMessage = "Sorry I didn't quite understand that! I only speak in Amazon links. " +
		"Can you try pasting that Amazon link again?"
	UnsupportedCountryMessage = "I'm sorry, but I currently only work with Amazon's Canada and U.S. stores. " +
		"I've noted that you're interested and I'll be sure to notify you when I've learnt how to work with stores in that area!"
	ProductNotFoundMessage    = "I'm sorry, I couldn't find that product, are you sure your link is correct?"
	UnsupportedProductMessage = "Sorry, but at this time, Amazon doesn't let me track that product."
	PriceUnavailableMessage   = "Amazon isn't showing a price for that product right now, so I can't track it yet. Try again in a bit!"
	RetryLaterMessage         = "Ooops, something went wrong with my magical Amazon communication skills. Try again in a bit!"
	TrackingStartedMessage    = "Great, I'll let you know when the price drops!"
	TrackingStoppedMessage    = "Okay, I stopped tracking that product!"
	AskThresholdMessage       = "Okay, what price do you want to update this product to? Hint: enter only a number."
	ThresholdUpdatedMessage   = "Great, I've updated the price threshold of that product for you"
	StaleEditMessage          = "Hmm, I'm not sure which product that number is for. Tap \"Change alert price\" on a product first, then send me the number."
	InvalidAmountMessage      = "That doesn't look like a price I can use. Enter only a number, like 12.99."
	NotTrackingMessage        = "You aren't tracking that product right now. Paste its link to start tracking it again!"
	NoTrackedProductsMessage  = "You aren't tracking anything yet. Paste an Amazon product link to get started!"
	PriceDropMessage          = "Hey, the price for one of your products dropped!"
)

// Callback payloads follow the original ":::"-separated postback format.
const (
	callbackSeparator = ":::"

	ActionTrack        = "track"
	ActionEditPrice    = "edit"
	ActionStopTracking = "stop"
)

var ErrInvalidCallback = errors.New("invalid callback payload")

func TrackCallback(marketplace, asin string) string {
	return strings.Join([]string{ActionTrack, marketplace, asin}, callbackSeparator)
}

func EditPriceCallback(productID uint) string {
	return strings.Join([]string{ActionEditPrice, strconv.FormatUint(uint64(productID), 10)}, callbackSeparator)
}

func StopTrackingCallback(productID uint) string {
	return strings.Join([]string{ActionStopTracking, strconv.FormatUint(uint64(productID), 10)}, callbackSeparator)
}

// ParseCallback splits a callback payload into its action and arguments.
func ParseCallback(data string) (action string, args []string, err error) {
	parts := strings.Split(data, callbackSeparator)
	if len(parts) < 2 {
		return "", nil, ErrInvalidCallback
	}
	switch parts[0] {
	case ActionTrack:
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return "", nil, ErrInvalidCallback
		}
	case ActionEditPrice, ActionStopTracking:
		if len(parts) != 2 {
			return "", nil, ErrInvalidCallback
		}
	default:
		return "", nil, ErrInvalidCallback
	}
	return parts[0], parts[1:], nil
}

func ParseProductID(arg string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, ErrInvalidCallback
	}
	return uint(value), nil
}

// ContainsURL reports whether a free-form message should be routed into the
// track-product flow.
func ContainsURL(text string) bool {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return true
		}
	}
	return false
}

// FormatAmount renders a minor-unit amount for display, e.g. 1899 USD ->
// "$18.99 USD".
func FormatAmount(amount int64, currencyCode string) string {
	formatted := fmt.Sprintf("$%d.%02d", amount/100, amount%100)
	if currencyCode != "" {
		formatted += " " + currencyCode
	}
	return formatted
}
