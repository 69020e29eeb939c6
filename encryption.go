// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"fmt"

	"github.com/coredoc/pdfxtract/logger"
)

// standardPad is the 32-byte padding string from ISO 32000-1 Algorithm
// 2, appended to (or truncated from) a user-supplied password before
// it is hashed into the file encryption key.
var standardPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// Encrypted reports whether the document's trailer names a /Encrypt
// dictionary.
func (r *Reader) Encrypted() bool {
	return r.trailer[name("Encrypt")] != nil
}

// Locked reports whether the document is encrypted and no successful
// Unlock call has yet derived a file key — i.e. whether stream and
// string bodies are still ciphertext.
func (r *Reader) Locked() bool {
	return r.Encrypted() && r.key == nil
}

// Unlock attempts to derive the file encryption key from password
// (the empty string for an unprotected-by-password, owner-restricted
// document) using the Standard Security Handler, Algorithm 2. On
// success, every subsequent string and stream read through r is
// transparently decrypted.
func (r *Reader) Unlock(password string) error {
	encPtr, ok := r.trailer[name("Encrypt")]
	if !ok || encPtr == nil {
		return nil
	}
	encVal := r.resolve(objptr{}, encPtr)
	if encVal.Kind() != Dict {
		return newPDFError(ErrCodeEncrypted, "malformed /Encrypt dictionary")
	}

	filter := encVal.Key("Filter").Name()
	if filter != "" && filter != "Standard" {
		logger.Error("encryption: unsupported security handler " + filter)
		return newPDFError(ErrCodeUnsupported, "unsupported security handler "+filter)
	}

	v := encVal.Key("V").Int64()
	r32 := encVal.Key("R").Int64()
	length := encVal.Key("Length").Int64()
	if length == 0 {
		length = 40
	}

	if v >= 4 {
		cf := encVal.Key("CF")
		stmf := encVal.Key("StmF").Name()
		if stmf == "" {
			stmf = "Identity"
		}
		if stmf != "Identity" {
			cfm := cf.Key(stmf).Key("CFM").Name()
			if cfm == "AESV2" || cfm == "AESV3" {
				logger.Error("encryption: AES crypt filters are not supported")
				return newPDFError(ErrCodeUnsupported, "AES encryption not supported")
			}
		}
	}

	oEntry := []byte(encVal.Key("O").RawString())
	p := int32(encVal.Key("P").Int64())
	var id0 []byte
	idArr := r.trailer[name("ID")]
	if arr, ok := idArr.(array); ok && len(arr) > 0 {
		if s, ok := arr[0].(string); ok {
			id0 = []byte(s)
		}
	}
	encryptMetadata := true
	if em, ok := encVal.Key("EncryptMetadata").data.(bool); ok {
		encryptMetadata = em
	}

	key := computeFileKey([]byte(password), oEntry, p, id0, int(r32), int(length)/8, encryptMetadata)

	uEntry := []byte(encVal.Key("U").RawString())
	if len(uEntry) > 0 {
		u := computeU(key, id0, int(r32))
		if !authenticatesU(u, uEntry, int(r32)) {
			logger.Error(fmt.Sprintf("encryption: password authentication failed (R=%d)", r32))
			return newPDFError(ErrCodeWrongPassword, "incorrect password")
		}
	}

	r.key = key
	r.useAES = false
	logger.Debug(fmt.Sprintf("encryption: derived %d-byte file key (R=%d)", len(key), r32), true)
	return nil
}

// computeU implements ISO 32000-1 Algorithm 4 (R2) and Algorithm 5
// (R3/R4): derive the /U value from the file key so it can be compared
// against the value stored in the /Encrypt dictionary to authenticate
// the password that produced key.
func computeU(key, id0 []byte, r int) []byte {
	if r == 2 {
		return rc4Raw(key, standardPad)
	}

	h := md5.New()
	h.Write(standardPad)
	h.Write(id0)
	base := h.Sum(nil)[:16]

	x := rc4Raw(key, base)
	for i := byte(1); i <= 19; i++ {
		xored := make([]byte, len(key))
		for j := range key {
			xored[j] = key[j] ^ i
		}
		x = rc4Raw(xored, x)
	}
	return append(x, x...)
}

// authenticatesU compares a freshly-derived U value against the one
// stored in /Encrypt. R2 compares the full 32 bytes; R3+ only the
// first 16, since the trailing 16 are padding bytes of no fixed value.
func authenticatesU(computed, stored []byte, r int) bool {
	if r == 2 {
		return bytes.Equal(computed, stored)
	}
	if len(computed) < 16 || len(stored) < 16 {
		return false
	}
	return bytes.Equal(computed[:16], stored[:16])
}

// rc4Raw RC4-encrypts data with key directly, with no per-object key
// derivation — used by the password-authentication algorithms, which
// operate on the file key itself rather than an object's derived key.
func rc4Raw(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// computeFileKey implements ISO 32000-1 Algorithm 2: derive the file
// encryption key from a (possibly empty) user password.
func computeFileKey(password, o []byte, p int32, id0 []byte, r, keyLen int, encryptMetadata bool) []byte {
	padded := padPassword(password)
	h := md5.New()
	h.Write(padded)
	h.Write(o)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(id0)
	if r >= 4 && !encryptMetadata {
		h.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}
	sum := h.Sum(nil)

	if keyLen <= 0 || keyLen > 16 {
		keyLen = 5
	}
	if r == 2 {
		keyLen = 5
	}
	key := sum[:keyLen]
	if r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(key)
			key = s[:keyLen]
		}
	}
	return append([]byte{}, key...)
}

func padPassword(password []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, password)
	copy(out[n:], standardPad)
	return out
}

// rc4Decrypt decrypts ciphertext with the per-object key derived by
// objectKey (declared in lexer.go, shared with string-literal
// decryption at lex time).
func rc4Decrypt(fileKey []byte, ptr objptr, ciphertext []byte) ([]byte, error) {
	key := objectKey(fileKey, ptr)
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	c.XORKeyStream(out, ciphertext)
	return out, nil
}
