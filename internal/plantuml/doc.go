// Package plantuml implements the PlantUML text encoding used by public
// rendering servers, together with the small amount of source surgery needed
// before a diagram is encoded.
//
// The encoding is raw DEFLATE followed by a base64 variant whose alphabet is
// "0-9A-Za-z-_". A trailing partial group is padded with zero bits and no '='
// padding is emitted, so every encoded string has a length divisible by four.
//
// Encoding happens at build time; the image itself is fetched by the reader's
// browser from URL(server, encoded).
package plantuml
