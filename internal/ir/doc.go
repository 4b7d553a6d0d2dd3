// Package ir provides the literal value types and canonical encodings shared
// by the rest of liftsql.
//
// This package contains leaf types only. All other internal packages may
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Constant values are a sealed set (IRNull, IRString, IRInt, IRFloat, IRBool)
//   - Strings are NFC normalized before they are hashed or rendered
//   - Hashes are domain separated so a schema revision can never collide with a query key
package ir
