// Package category classifies food names into a fixed taxonomy.
//
// Classification is lexical: names are folded and compared against ordered
// keyword buckets, with multi-word keywords ("peanut butter", "ice cream")
// taking precedence over single words. Composite dishes such as sandwiches or
// soups inherit the category of their first recognised ingredient. Canonical
// maps free-form provider labels onto the taxonomy.
package category
