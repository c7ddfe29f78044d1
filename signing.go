package krakengo

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"strconv"
)

// SignSpot computes Kraken's Spot API-Sign signature:
//
//	body      := "nonce=" + nonce + ("&" + params if any)
//	sha_input := ascii(nonce) || body
//	h         := SHA256(sha_input)
//	mac_input := path || h
//	m         := HMAC-SHA512(key = base64_decode(secret), data = mac_input)
//	API-Sign  := base64(m)
//
// The nonce is hashed separately from the path: the path only ever appears
// once, concatenated directly before the SHA256 digest, never inside it.
func SignSpot(apiSecret, path string, nonce uint64, body string) (string, error) {
	decodedSecret, err := base64.StdEncoding.DecodeString(apiSecret)
	if err != nil {
		return "", &AuthError{Reason: "API secret must be valid base64"}
	}

	nonceStr := strconv.FormatUint(nonce, 10)

	sha := sha256.New()
	sha.Write([]byte(nonceStr))
	sha.Write([]byte(body))
	digest := sha.Sum(nil)

	mac := hmac.New(sha512.New, decodedSecret)
	mac.Write([]byte(path))
	mac.Write(digest)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignFutures computes Kraken Futures' Authent signature:
//
//	sha_input := body || ascii(nonce) || path
//	h         := SHA256(sha_input)
//	m         := HMAC-SHA512(key = base64_decode(secret), data = h)
//	Authent   := base64(m)
//
// Unlike SignSpot, the path never touches the HMAC directly: it is folded
// into the SHA256 input instead, after the nonce.
func SignFutures(apiSecret, path string, nonce uint64, body string) (string, error) {
	decodedSecret, err := base64.StdEncoding.DecodeString(apiSecret)
	if err != nil {
		return "", &AuthError{Reason: "API secret must be valid base64"}
	}

	nonceStr := strconv.FormatUint(nonce, 10)

	sha := sha256.New()
	sha.Write([]byte(body))
	sha.Write([]byte(nonceStr))
	sha.Write([]byte(path))
	digest := sha.Sum(nil)

	mac := hmac.New(sha512.New, decodedSecret)
	mac.Write(digest)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignChallenge signs a Futures websocket authentication challenge:
//
//	h := SHA256(challenge)
//	m := HMAC-SHA512(key = base64_decode(secret), data = h)
//	signed_challenge := base64(m)
func SignChallenge(apiSecret, challenge string) (string, error) {
	decodedSecret, err := base64.StdEncoding.DecodeString(apiSecret)
	if err != nil {
		return "", &AuthError{Reason: "API secret must be valid base64"}
	}

	digest := sha256.Sum256([]byte(challenge))

	mac := hmac.New(sha512.New, decodedSecret)
	mac.Write(digest[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
