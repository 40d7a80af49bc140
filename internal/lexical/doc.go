// Package lexical provides the term tokenization, synonym expansion and
// scoring primitives shared by the hybrid ranker.
//
// Scores produced here are raw accumulations; the ranker min-max
// normalizes them across each candidate set before combining with
// semantic similarity.
package lexical
