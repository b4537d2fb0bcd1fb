package common

// AccessTokenHeaderName is the HTTP header used to carry the access token on
// outbound requests.
const AccessTokenHeaderName = "Authorization"

// AccessTokenQueryParam is the fallback query parameter for transports that
// cannot set headers on upgrade requests (browser websockets).
const AccessTokenQueryParam = "access_token"
